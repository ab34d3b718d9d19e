package sink

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/clocktree/pkg/render"
)

var rgbRe = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)

// ParseColor converts a CSS hex or rgb()/rgba() color to an image color.
func ParseColor(c render.Color) (color.Color, error) {
	s := string(c)
	if m := rgbRe.FindStringSubmatch(s); m != nil {
		var ch [3]uint8
		for i := range ch {
			v, err := strconv.Atoi(m[i+1])
			if err != nil || v > 255 {
				return nil, fmt.Errorf("invalid color %q", s)
			}
			ch[i] = uint8(v)
		}
		alpha := 1.0
		if m[4] != "" {
			a, err := strconv.ParseFloat(m[4], 64)
			if err != nil || a < 0 || a > 1 {
				return nil, fmt.Errorf("invalid color %q", s)
			}
			alpha = a
		}
		return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(alpha * 255)}, nil
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// mustColor parses c, falling back to opaque black.
func mustColor(c render.Color) color.Color {
	col, err := ParseColor(c)
	if err != nil {
		return color.Black
	}
	return col
}
