package sink

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/clocktree/pkg/render"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      render.Color
		want    color.NRGBA
		wantErr bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"#ff4d4f", color.NRGBA{255, 77, 79, 255}, false},
		{"rgb(209, 233, 255)", color.NRGBA{209, 233, 255, 255}, false},
		{"rgba(0,0,0,0)", color.NRGBA{0, 0, 0, 0}, false},
		{"rgb(300, 0, 0)", color.NRGBA{}, true},
		{"white", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSVG(t *testing.T) {
	s := NewSVG(200, 100, WithBackground("#1f2d3d"), WithID("diagram"))
	s.Clear()
	s.StrokePath(render.NewPath().MoveTo(0, 0).LineTo(10.5, 20), render.Stroke{Color: "#fff", Width: 2})
	s.FillPath(render.NewPath().RoundRect(10, 10, 50, 20, 8), "rgb(209, 233, 255)")
	s.FillText("A<B", 35, 20, render.Font{Size: 11, Align: render.AlignCenter, LetterSpacing: 1}, "#495057")

	out := string(s.Bytes())
	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" id="diagram" viewBox="0 0 200 100"`,
		`<rect x="0" y="0" width="200" height="100" fill="#1f2d3d"/>`,
		`d="M0 0 L10.5 20" fill="none" stroke="#fff" stroke-width="2"`,
		`d="M18 10 H52 A8 8 0 0 1 60 18`,
		`text-anchor="middle"`,
		`letter-spacing="1"`,
		`>A&lt;B</text>`,
		"</svg>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q\n%s", want, out)
		}
	}

	s.Clear()
	if strings.Contains(string(s.Bytes()), "<path") {
		t.Error("Clear should drop earlier drawing")
	}
}

func TestSVGEmbeddedFont(t *testing.T) {
	out := string(NewSVG(10, 10, WithEmbeddedFont()).Bytes())
	if !strings.Contains(out, "@font-face") || !strings.Contains(out, "base64,") {
		t.Error("embedded font missing")
	}
}

func TestPNG(t *testing.T) {
	p := NewPNG(100, 50, WithPNGScale(2), WithPNGBackground("#000"))
	p.Clear()
	p.FillPath(render.NewPath().RoundRect(10, 10, 30, 20, 4), "#ff4d4f")
	p.StrokePath(render.NewPath().MoveTo(0, 45).LineTo(100, 45), render.Stroke{Color: "#fff", Width: 2})
	p.FillText("1MHz", 60, 20, render.Font{Size: 14}, "#fff")

	data, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("size = %v, want 200x100", b)
	}
	r, _, _, _ := img.At(50, 40).RGBA()
	if r>>8 != 255 {
		t.Errorf("badge pixel red = %d, want 255", r>>8)
	}
	r, g, b, _ := img.At(2, 2).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("background pixel = %d,%d,%d, want black", r, g, b)
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.FillText("x", 0, 0, render.Font{Size: 10}, "#000")
	rec.Clear()
	rec.FillText("y", 0, 0, render.Font{Size: 10}, "#000")
	rec.StrokeText("z", 0, 0, render.Font{Size: 10}, render.Stroke{Color: "#fff", Width: 1})

	if got := rec.Texts(); len(got) != 1 || got[0] != "y" {
		t.Errorf("Texts() = %v, want [y]", got)
	}
	if got := len(rec.Calls()); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if rec.MeasureText("160MHz", render.Font{Size: 14}) <= 0 {
		t.Error("MeasureText should be positive")
	}
}
