package render

// Color is a CSS color string such as "#fff" or "rgb(209, 233, 255)".
type Color string

// Align is the horizontal anchor of a text run.
type Align int

const (
	// AlignLeft anchors text at its left edge.
	AlignLeft Align = iota
	// AlignCenter anchors text at its horizontal centre.
	AlignCenter
)

// Font describes a text run. Text is always vertically centred on its y.
type Font struct {
	Size          float64
	Align         Align
	LetterSpacing float64
}

// Stroke describes a line style. Joins and caps are always round.
type Stroke struct {
	Color Color
	Width float64
}

// Surface is the drawing target the renderer issues calls against.
type Surface interface {
	Clear()
	StrokePath(p *Path, s Stroke)
	FillPath(p *Path, c Color)
	FillText(text string, x, y float64, f Font, c Color)
	StrokeText(text string, x, y float64, f Font, s Stroke)
	MeasureText(text string, f Font) float64
}

// OpKind identifies a path operation.
type OpKind int

// Path operations.
const (
	OpMoveTo OpKind = iota
	OpLineTo
	OpClose
	OpRoundRect
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpMoveTo:
		return "M"
	case OpLineTo:
		return "L"
	case OpClose:
		return "Z"
	case OpRoundRect:
		return "RR"
	default:
		return "?"
	}
}

// Op is one path operation. MoveTo and LineTo use X and Y; RoundRect uses
// all fields.
type Op struct {
	Kind OpKind  `json:"kind"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	W    float64 `json:"w,omitempty"`
	H    float64 `json:"h,omitempty"`
	R    float64 `json:"r,omitempty"`
}

// Path is a sequence of path operations built with chained calls:
//
//	p := render.NewPath().MoveTo(0, 0).LineTo(10, 0).LineTo(10, 10)
type Path struct {
	ops []Op
}

// NewPath returns an empty path.
func NewPath() *Path { return &Path{} }

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) *Path {
	p.ops = append(p.ops, Op{Kind: OpMoveTo, X: x, Y: y})
	return p
}

// LineTo adds a straight segment to (x, y).
func (p *Path) LineTo(x, y float64) *Path {
	p.ops = append(p.ops, Op{Kind: OpLineTo, X: x, Y: y})
	return p
}

// Close closes the current subpath.
func (p *Path) Close() *Path {
	p.ops = append(p.ops, Op{Kind: OpClose})
	return p
}

// RoundRect adds a closed rounded rectangle. The radius is clamped to half
// the shorter side.
func (p *Path) RoundRect(x, y, w, h, r float64) *Path {
	r = min(r, w/2, h/2)
	if r < 0 {
		r = 0
	}
	p.ops = append(p.ops, Op{Kind: OpRoundRect, X: x, Y: y, W: w, H: h, R: r})
	return p
}

// Ops returns the operations in order. The slice must not be modified.
func (p *Path) Ops() []Op { return p.ops }
