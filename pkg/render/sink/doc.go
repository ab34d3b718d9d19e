// Package sink provides drawing surfaces for the clock diagram renderer.
//
// Every surface implements [render.Surface] and measures text with the
// embedded font from package fonts, so the badge behind the special
// terminal's frequency has the same width in every format.
//
// # SVG
//
//	s := sink.NewSVG(1400, 1000, sink.WithBackground("#1f2d3d"))
//	render.New().Render(s, model)
//	os.WriteFile("clock.svg", s.Bytes(), 0644)
//
// # PNG
//
// The PNG surface rasterizes natively with fogleman/gg; no external tools
// are needed.
//
//	p := sink.NewPNG(1400, 1000, sink.WithPNGScale(2))
//	render.New().Render(p, model)
//	data, err := p.Bytes()
//
// # Recorder
//
// [Recorder] keeps every call as data. Tests use it to assert on the exact
// draw calls, and the JSON frame dump serializes it.
package sink
