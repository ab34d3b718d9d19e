package sink

import (
	"github.com/matzehuels/clocktree/pkg/fonts"
	"github.com/matzehuels/clocktree/pkg/render"
)

// Call kinds recorded by [Recorder].
const (
	CallClear      = "clear"
	CallStrokePath = "stroke_path"
	CallFillPath   = "fill_path"
	CallFillText   = "fill_text"
	CallStrokeText = "stroke_text"
)

// Call is one recorded surface call.
type Call struct {
	Kind   string         `json:"kind"`
	Ops    []render.Op    `json:"ops,omitempty"`
	Color  render.Color   `json:"color,omitempty"`
	Stroke *render.Stroke `json:"stroke,omitempty"`
	Text   string         `json:"text,omitempty"`
	X      float64        `json:"x,omitempty"`
	Y      float64        `json:"y,omitempty"`
	Font   *render.Font   `json:"font,omitempty"`
}

// Recorder is a surface that stores every call. Clear drops earlier calls.
type Recorder struct {
	calls []Call
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Clear implements [render.Surface].
func (r *Recorder) Clear() {
	r.calls = []Call{{Kind: CallClear}}
}

// StrokePath implements [render.Surface].
func (r *Recorder) StrokePath(p *render.Path, s render.Stroke) {
	r.calls = append(r.calls, Call{Kind: CallStrokePath, Ops: clone(p), Stroke: &s})
}

// FillPath implements [render.Surface].
func (r *Recorder) FillPath(p *render.Path, c render.Color) {
	r.calls = append(r.calls, Call{Kind: CallFillPath, Ops: clone(p), Color: c})
}

// FillText implements [render.Surface].
func (r *Recorder) FillText(text string, x, y float64, f render.Font, c render.Color) {
	r.calls = append(r.calls, Call{Kind: CallFillText, Text: text, X: x, Y: y, Font: &f, Color: c})
}

// StrokeText implements [render.Surface].
func (r *Recorder) StrokeText(text string, x, y float64, f render.Font, s render.Stroke) {
	r.calls = append(r.calls, Call{Kind: CallStrokeText, Text: text, X: x, Y: y, Font: &f, Stroke: &s})
}

// MeasureText implements [render.Surface] using the embedded font.
func (r *Recorder) MeasureText(text string, f render.Font) float64 {
	return fonts.Measure(text, f.Size, f.LetterSpacing)
}

// Calls returns the recorded calls since the last Clear.
func (r *Recorder) Calls() []Call { return r.calls }

// Filter returns the recorded calls of the given kind.
func (r *Recorder) Filter(kind string) []Call {
	var out []Call
	for _, c := range r.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Texts returns the text of every fill_text call, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, c := range r.Filter(CallFillText) {
		out = append(out, c.Text)
	}
	return out
}

func clone(p *render.Path) []render.Op {
	return append([]render.Op(nil), p.Ops()...)
}

var _ render.Surface = (*Recorder)(nil)
