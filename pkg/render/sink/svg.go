package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/clocktree/pkg/fonts"
	"github.com/matzehuels/clocktree/pkg/render"
)

// SVGOption configures an [SVG] surface.
type SVGOption func(*SVG)

// WithBackground paints a full-frame rectangle behind the drawing.
func WithBackground(c render.Color) SVGOption { return func(s *SVG) { s.background = c } }

// WithEmbeddedFont embeds the measuring font as a base64 @font-face rule so
// text renders at the measured width in any viewer.
func WithEmbeddedFont() SVGOption { return func(s *SVG) { s.embedFont = true } }

// WithID sets the id attribute of the root element.
func WithID(id string) SVGOption { return func(s *SVG) { s.id = id } }

// SVG is a surface that builds an SVG document.
type SVG struct {
	width, height float64
	background    render.Color
	embedFont     bool
	id            string
	body          bytes.Buffer
}

// NewSVG creates an SVG surface of the given size.
func NewSVG(width, height float64, opts ...SVGOption) *SVG {
	s := &SVG{width: width, height: height}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clear implements [render.Surface].
func (s *SVG) Clear() {
	s.body.Reset()
}

// StrokePath implements [render.Surface].
func (s *SVG) StrokePath(p *render.Path, st render.Stroke) {
	fmt.Fprintf(&s.body, `  <path d="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linecap="round" stroke-linejoin="round"/>`+"\n",
		pathData(p), escape(string(st.Color)), num(st.Width))
}

// FillPath implements [render.Surface].
func (s *SVG) FillPath(p *render.Path, c render.Color) {
	fmt.Fprintf(&s.body, `  <path d="%s" fill="%s"/>`+"\n", pathData(p), escape(string(c)))
}

// FillText implements [render.Surface].
func (s *SVG) FillText(text string, x, y float64, f render.Font, c render.Color) {
	s.text(text, x, y, f, fmt.Sprintf(`fill="%s"`, escape(string(c))))
}

// StrokeText implements [render.Surface].
func (s *SVG) StrokeText(text string, x, y float64, f render.Font, st render.Stroke) {
	s.text(text, x, y, f, fmt.Sprintf(`fill="none" stroke="%s" stroke-width="%s"`, escape(string(st.Color)), num(st.Width)))
}

func (s *SVG) text(text string, x, y float64, f render.Font, paint string) {
	anchor := "start"
	if f.Align == render.AlignCenter {
		anchor = "middle"
	}
	spacing := ""
	if f.LetterSpacing != 0 {
		spacing = fmt.Sprintf(` letter-spacing="%s"`, num(f.LetterSpacing))
	}
	fmt.Fprintf(&s.body, `  <text x="%s" y="%s" font-family="%s" font-size="%s" text-anchor="%s" dominant-baseline="middle"%s %s>%s</text>`+"\n",
		num(x), num(y), escape(fonts.FallbackFontFamily), num(f.Size), anchor, spacing, paint, escape(text))
}

// MeasureText implements [render.Surface] using the embedded font.
func (s *SVG) MeasureText(text string, f render.Font) float64 {
	return fonts.Measure(text, f.Size, f.LetterSpacing)
}

// Bytes returns the complete document.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	id := ""
	if s.id != "" {
		id = fmt.Sprintf(` id="%s"`, escape(s.id))
	}
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg"%s viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
		id, num(s.width), num(s.height), s.width, s.height)
	if s.embedFont {
		fmt.Fprintf(&buf, "  <defs><style>@font-face { font-family: '%s'; src: url(data:font/ttf;base64,%s) format('truetype'); }</style></defs>\n",
			fonts.FontFamily, fonts.RegularTTFBase64())
	}
	if s.background != "" {
		fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%s" height="%s" fill="%s"/>`+"\n",
			num(s.width), num(s.height), escape(string(s.background)))
	}
	buf.Write(s.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// pathData converts path operations to SVG path data.
func pathData(p *render.Path) string {
	var b strings.Builder
	for i, op := range p.Ops() {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch op.Kind {
		case render.OpMoveTo:
			fmt.Fprintf(&b, "M%s %s", num(op.X), num(op.Y))
		case render.OpLineTo:
			fmt.Fprintf(&b, "L%s %s", num(op.X), num(op.Y))
		case render.OpClose:
			b.WriteByte('Z')
		case render.OpRoundRect:
			x, y, w, h, r := op.X, op.Y, op.W, op.H, op.R
			fmt.Fprintf(&b, "M%s %s H%s A%s %s 0 0 1 %s %s V%s A%s %s 0 0 1 %s %s H%s A%s %s 0 0 1 %s %s V%s A%s %s 0 0 1 %s %s Z",
				num(x+r), num(y),
				num(x+w-r), num(r), num(r), num(x+w), num(y+r),
				num(y+h-r), num(r), num(r), num(x+w-r), num(y+h),
				num(x+r), num(r), num(r), num(x), num(y+h-r),
				num(y+r), num(r), num(r), num(x+r), num(y))
		}
	}
	return b.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

var _ render.Surface = (*SVG)(nil)
