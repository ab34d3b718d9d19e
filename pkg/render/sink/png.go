package sink

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/clocktree/pkg/fonts"
	"github.com/matzehuels/clocktree/pkg/render"
)

// PNGOption configures a [PNG] surface.
type PNGOption func(*PNG)

// WithPNGScale sets the pixel density (default 1; 2 gives a 2x image).
func WithPNGScale(s float64) PNGOption {
	return func(p *PNG) {
		if s > 0 {
			p.scale = s
		}
	}
}

// WithPNGBackground sets the color the surface is cleared to. Without it
// the image is transparent.
func WithPNGBackground(c render.Color) PNGOption { return func(p *PNG) { p.background = c } }

// PNG is a raster surface backed by a gg context.
type PNG struct {
	dc         *gg.Context
	scale      float64
	background render.Color
	// faces are private to this surface; gg draws glyphs outside any lock.
	faces map[float64]font.Face
}

// NewPNG creates a raster surface for a width x height frame.
func NewPNG(width, height float64, opts ...PNGOption) *PNG {
	p := &PNG{scale: 1, faces: map[float64]font.Face{}}
	for _, opt := range opts {
		opt(p)
	}
	w := max(1, int(width*p.scale+0.5))
	h := max(1, int(height*p.scale+0.5))
	p.dc = gg.NewContext(w, h)
	p.dc.Scale(p.scale, p.scale)
	return p
}

// Clear implements [render.Surface].
func (p *PNG) Clear() {
	p.dc.Push()
	p.dc.Identity()
	if p.background != "" {
		p.dc.SetColor(mustColor(p.background))
	} else {
		p.dc.SetColor(color.Transparent)
	}
	p.dc.Clear()
	p.dc.Pop()
}

func (p *PNG) trace(path *render.Path) {
	p.dc.NewSubPath()
	for _, op := range path.Ops() {
		switch op.Kind {
		case render.OpMoveTo:
			p.dc.MoveTo(op.X, op.Y)
		case render.OpLineTo:
			p.dc.LineTo(op.X, op.Y)
		case render.OpClose:
			p.dc.ClosePath()
		case render.OpRoundRect:
			p.dc.DrawRoundedRectangle(op.X, op.Y, op.W, op.H, op.R)
		}
	}
}

// StrokePath implements [render.Surface].
func (p *PNG) StrokePath(path *render.Path, s render.Stroke) {
	p.trace(path)
	p.dc.SetColor(mustColor(s.Color))
	p.dc.SetLineWidth(s.Width)
	p.dc.SetLineCapRound()
	p.dc.SetLineJoinRound()
	p.dc.Stroke()
}

// FillPath implements [render.Surface].
func (p *PNG) FillPath(path *render.Path, c render.Color) {
	p.trace(path)
	p.dc.SetColor(mustColor(c))
	p.dc.Fill()
}

// FillText implements [render.Surface].
func (p *PNG) FillText(text string, x, y float64, f render.Font, c render.Color) {
	p.dc.SetColor(mustColor(c))
	p.drawText(text, x, y, f)
}

// StrokeText implements [render.Surface]. gg has no text outlines, so the
// text is stamped around its position at the stroke width.
func (p *PNG) StrokeText(text string, x, y float64, f render.Font, s render.Stroke) {
	p.dc.SetColor(mustColor(s.Color))
	d := s.Width / 2
	for _, off := range [][2]float64{{-d, 0}, {d, 0}, {0, -d}, {0, d}} {
		p.drawText(text, x+off[0], y+off[1], f)
	}
}

// drawText draws rune by rune so letter spacing matches [fonts.Measure].
func (p *PNG) drawText(text string, x, y float64, f render.Font) {
	if !p.setFace(f.Size) {
		return
	}
	if f.Align == render.AlignCenter {
		x -= p.MeasureText(text, f) / 2
	}
	for _, r := range text {
		s := string(r)
		p.dc.DrawStringAnchored(s, x, y, 0, 0.35)
		w, _ := p.dc.MeasureString(s)
		x += w + f.LetterSpacing
	}
}

func (p *PNG) setFace(size float64) bool {
	face, ok := p.faces[size]
	if !ok {
		var err error
		face, err = fonts.NewFace(size)
		if err != nil {
			return false
		}
		p.faces[size] = face
	}
	p.dc.SetFontFace(face)
	return true
}

// MeasureText implements [render.Surface] using the embedded font.
func (p *PNG) MeasureText(text string, f render.Font) float64 {
	return fonts.Measure(text, f.Size, f.LetterSpacing)
}

// Image returns the rendered image.
func (p *PNG) Image() image.Image { return p.dc.Image() }

// Encode writes the image as PNG.
func (p *PNG) Encode(w io.Writer) error { return p.dc.EncodePNG(w) }

// Bytes returns the image encoded as PNG.
func (p *PNG) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ render.Surface = (*PNG)(nil)
