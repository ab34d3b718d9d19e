package render

import (
	"math"

	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// Routing defaults, in surface units. They are not scaled with the frame.
const (
	DefaultGap            = 60
	DefaultLeadIn         = 50
	DefaultHighlightBelow = 160
)

// arrowAngle is the half-angle of an arrowhead.
const arrowAngle = math.Pi / 6

// Option configures a [Renderer].
type Option func(*Renderer)

// WithTheme sets the drawing theme.
func WithTheme(t Theme) Option { return func(r *Renderer) { r.Theme = t } }

// WithGap sets the horizontal gap between a trunk and the child column.
func WithGap(g float64) Option { return func(r *Renderer) { r.Gap = g } }

// WithLeadIn sets the lead-in length of the lead_in node's fan-out.
func WithLeadIn(l float64) Option { return func(r *Renderer) { r.LeadIn = l } }

// Renderer draws a model onto a surface. The zero value is not usable; use [New].
type Renderer struct {
	Theme  Theme
	Gap    float64
	LeadIn float64
	// HighlightBelow is used when the model carries no threshold of its own.
	HighlightBelow float64
}

// New creates a renderer with the default theme and routing.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		Theme:          DefaultTheme,
		Gap:            DefaultGap,
		LeadIn:         DefaultLeadIn,
		HighlightBelow: DefaultHighlightBelow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats summarizes one render call.
type Stats struct {
	Nodes       int // node boxes drawn
	Connections int // connections drawn
	Skipped     int // connections skipped for a missing endpoint
	Badged      bool
}

// Render clears s and draws all connectors, then all nodes.
func (r *Renderer) Render(s Surface, m *tree.Model) Stats {
	var st Stats
	s.Clear()

	parents, groups := r.group(m, &st)
	for _, pid := range parents {
		parent, _ := m.Node(pid)
		children := groups[pid]
		switch {
		case len(children) == 1:
			r.single(s, parent, children[0])
		case parent.Key == m.Render.LeadIn:
			r.leadIn(s, parent, children)
		default:
			r.fanOut(s, parent, children)
		}
		st.Connections += len(children)
	}

	threshold := m.Render.HighlightBelow
	if threshold == 0 {
		threshold = r.HighlightBelow
	}
	for _, n := range m.Nodes {
		if n.Placeholder() || n.Interactive {
			continue
		}
		if r.node(s, n, threshold) {
			st.Badged = true
		}
		st.Nodes++
	}
	return st
}

// group collects the children of each parent in connection order, skipping
// connections whose endpoints are not in the model.
func (r *Renderer) group(m *tree.Model, st *Stats) ([]string, map[string][]*tree.Node) {
	var order []string
	groups := make(map[string][]*tree.Node)
	for _, c := range m.Connections {
		_, okFrom := m.Node(c.From)
		to, okTo := m.Node(c.To)
		if !okFrom || !okTo {
			st.Skipped++
			continue
		}
		if _, seen := groups[c.From]; !seen {
			order = append(order, c.From)
		}
		groups[c.From] = append(groups[c.From], to)
	}
	return order, groups
}

func (r *Renderer) line() Stroke {
	return Stroke{Color: r.Theme.Line, Width: r.Theme.LineWidth}
}

// single routes parent -> child with three orthogonal segments.
func (r *Renderer) single(s Surface, parent, child *tree.Node) {
	startX, startY := parent.Right(), parent.Centre()
	endX, endY := child.X, child.Centre()
	midX := endX - r.Gap

	s.StrokePath(NewPath().
		MoveTo(startX, startY).
		LineTo(midX, startY).
		LineTo(midX, endY).
		LineTo(endX, endY), r.line())
	if !child.Placeholder() {
		r.arrow(s, endX, endY)
	}
}

// fanOut routes parent to several children through a shared trunk.
func (r *Renderer) fanOut(s Surface, parent *tree.Node, children []*tree.Node) {
	lo, hi, left := span(children)
	trunkX := left - r.Gap
	startY := parent.Centre()

	s.StrokePath(NewPath().MoveTo(parent.Right(), startY).LineTo(trunkX, startY), r.line())
	if math.Abs(hi-lo) > 1 {
		s.StrokePath(NewPath().MoveTo(trunkX, lo).LineTo(trunkX, hi), r.line())
	}
	r.legs(s, trunkX, children)
}

// leadIn is the fan-out variant for the lead_in node: a fixed-length segment
// out of the parent, and a trunk at its end that is always drawn.
func (r *Renderer) leadIn(s Surface, parent *tree.Node, children []*tree.Node) {
	lo, hi, _ := span(children)
	startX, startY := parent.Right(), parent.Centre()
	trunkX := startX + r.LeadIn

	s.StrokePath(NewPath().MoveTo(startX, startY).LineTo(trunkX, startY), r.line())
	s.StrokePath(NewPath().MoveTo(trunkX, lo).LineTo(trunkX, hi), r.line())
	r.legs(s, trunkX, children)
}

func (r *Renderer) legs(s Surface, trunkX float64, children []*tree.Node) {
	for _, c := range children {
		y := c.Centre()
		s.StrokePath(NewPath().MoveTo(trunkX, y).LineTo(c.X, y), r.line())
		if !c.Placeholder() {
			r.arrow(s, c.X, y)
		}
	}
}

// span returns the lowest and highest child centre and the leftmost child x.
func span(children []*tree.Node) (lo, hi, left float64) {
	lo, hi, left = math.Inf(1), math.Inf(-1), math.Inf(1)
	for _, c := range children {
		lo = math.Min(lo, c.Centre())
		hi = math.Max(hi, c.Centre())
		left = math.Min(left, c.X)
	}
	return lo, hi, left
}

// arrow fills an arrowhead whose tip is at (x, y), pointing right.
func (r *Renderer) arrow(s Surface, x, y float64) {
	size := r.Theme.ArrowSize
	dx := size * math.Cos(arrowAngle)
	dy := size * math.Sin(arrowAngle)
	s.FillPath(NewPath().
		MoveTo(x, y).
		LineTo(x-dx, y-dy).
		LineTo(x-dx, y+dy).
		Close(), r.Theme.Line)
}

// node draws a box, its label and its frequency. It reports whether a
// highlight badge was drawn.
func (r *Renderer) node(s Surface, n *tree.Node, threshold float64) bool {
	th := r.Theme
	fill := th.NodeFill
	if n.Special {
		fill = th.SpecialFill
	}
	box := NewPath().RoundRect(n.X, n.Y, n.W, n.H, th.CornerRadius)
	s.FillPath(box, fill)
	s.StrokePath(box, Stroke{Color: th.NodeStroke, Width: 1})

	labelFont := Font{Size: r.labelSize(n), Align: AlignCenter, LetterSpacing: th.LetterSpacing}
	s.FillText(n.Label, n.X+n.W/2, n.Centre()+labelFont.Size*0.1, labelFont, th.Label)

	if n.Freq == nil {
		return false
	}
	text := n.Freq.String()
	freqFont := Font{Size: math.Max(th.FreqSize*n.H/30, th.FreqSize), Align: AlignLeft, LetterSpacing: th.LetterSpacing}
	fx, fy := n.Right()+th.FreqOffset, n.Centre()

	badged := n.Special && n.Kind == topology.KindTerminal && n.Freq.Below(threshold)
	if badged {
		w := s.MeasureText(text, freqFont)
		pad := th.BadgePadding
		s.FillPath(NewPath().RoundRect(fx-pad, fy-freqFont.Size/2-pad, w+2*pad, freqFont.Size+2*pad, th.BadgeRadius), th.Badge)
		s.StrokePath(NewPath().MoveTo(fx, fy).LineTo(fx+w, fy), Stroke{Color: th.BadgeText, Width: 1})
		s.FillText(text, fx, fy, freqFont, th.BadgeText)
		return true
	}
	s.FillText(text, fx, fy, freqFont, th.Freq)
	return false
}

func (r *Renderer) labelSize(n *tree.Node) float64 {
	return math.Max(r.Theme.LabelSize*n.H/30, r.Theme.LabelSize)
}

// DrawControlFace draws a static stand-in for an interactive node: its box
// with the selected option and a caret. Live hosts overlay a real control
// instead and never call this.
func (r *Renderer) DrawControlFace(s Surface, n *tree.Node) {
	th := r.Theme
	box := NewPath().RoundRect(n.X, n.Y, n.W, n.H, th.CornerRadius)
	s.FillPath(box, th.NodeFill)
	s.StrokePath(box, Stroke{Color: th.NodeStroke, Width: 1})

	f := Font{Size: math.Max(12*n.H/40, 8), Align: AlignLeft}
	s.FillText(n.Selected, n.X+10*n.H/40, n.Centre(), f, th.Label)

	cx, cy, cs := n.Right()-13*n.H/40, n.Centre(), 4*n.H/40
	s.FillPath(NewPath().
		MoveTo(cx-cs, cy-cs/2).
		LineTo(cx+cs, cy-cs/2).
		LineTo(cx, cy+cs/2).
		Close(), th.Label)
}

// RenderStatic renders m and then draws a face for every interactive node,
// for exports that have no host controls.
func (r *Renderer) RenderStatic(s Surface, m *tree.Model) Stats {
	st := r.Render(s, m)
	for _, n := range m.Interactive() {
		r.DrawControlFace(s, n)
	}
	return st
}
