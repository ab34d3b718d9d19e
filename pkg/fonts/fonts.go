// Package fonts provides the embedded typeface used to draw and measure
// diagram text.
//
// The Go Regular TrueType font ships inside golang.org/x/image, so the binary
// needs no system fonts. Both the SVG and PNG surfaces measure text with the
// same faces, which keeps badge widths identical across output formats.
package fonts

import (
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font-family name of the embedded font.
const FontFamily = "Go"

// FallbackFontFamily lists fallbacks for viewers that ignore the embedded font.
const FallbackFontFamily = `'Go', Arial, sans-serif`

var (
	parsed     *opentype.Font
	parseErr   error
	parsedOnce sync.Once

	facesMu sync.Mutex
	faces   = map[float64]font.Face{}
)

// RegularTTF returns the TTF font data.
func RegularTTF() []byte {
	return goregular.TTF
}

// Cache for the base64-encoded font (computed once on first access).
var (
	ttfBase64     string
	ttfBase64Once sync.Once
)

// RegularTTFBase64 returns the TTF font data as a base64 string, for
// embedding in an SVG @font-face rule. The result is cached.
func RegularTTFBase64() string {
	ttfBase64Once.Do(func() {
		ttfBase64 = base64.StdEncoding.EncodeToString(goregular.TTF)
	})
	return ttfBase64
}

// Regular returns the parsed embedded font.
func Regular() (*opentype.Font, error) {
	parsedOnce.Do(func() {
		parsed, parseErr = opentype.Parse(goregular.TTF)
	})
	return parsed, parseErr
}

// NewFace returns a new face of the embedded font at size pixels. Faces are
// not safe for concurrent use; callers that draw own their face.
func NewFace(size float64) (font.Face, error) {
	fnt, err := Regular()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return face, nil
}

// Face returns a shared face of the embedded font at size pixels, cached per
// size. Use it through [Measure]; drawing code should use [NewFace].
func Face(size float64) (font.Face, error) {
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	face, err := NewFace(size)
	if err != nil {
		return nil, err
	}
	faces[size] = face
	return face, nil
}

// Measure returns the advance width of text at size pixels, adding
// letterSpacing after every rune. It falls back to an average glyph width
// estimate if the font cannot be loaded.
func Measure(text string, size, letterSpacing float64) float64 {
	runes := float64(len([]rune(text)))
	face, err := Face(size)
	if err != nil {
		return runes * (size*0.55 + letterSpacing)
	}
	facesMu.Lock()
	adv := font.MeasureString(face, text)
	facesMu.Unlock()
	return float64(adv)/64 + runes*letterSpacing
}
