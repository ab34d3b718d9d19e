package render

// Theme holds the colors and sizes used for drawing.
type Theme struct {
	Line        Color
	LineWidth   float64
	NodeFill    Color
	SpecialFill Color
	NodeStroke  Color
	Label       Color
	Freq        Color
	Badge       Color
	BadgeText   Color
	// Background is the canvas fill exports and the live frame use unless
	// told otherwise. Lines and frequencies are drawn light on it.
	Background Color

	CornerRadius  float64
	BadgeRadius   float64
	BadgePadding  float64
	ArrowSize     float64
	LabelSize     float64 // minimum label size, scaled by box height / 30
	FreqSize      float64 // minimum frequency size, scaled by box height / 30
	FreqOffset    float64
	LetterSpacing float64
}

// DefaultTheme is the light-box-on-dark palette of the web view.
var DefaultTheme = Theme{
	Line:        "#fff",
	LineWidth:   2,
	NodeFill:    "rgb(209, 233, 255)",
	SpecialFill: "rgb(255, 241, 184)",
	NodeStroke:  "#dee2e6",
	Label:       "#495057",
	Freq:        "#fff",
	Badge:       "#ff4d4f",
	BadgeText:   "#fff",
	Background:  "#1f2d3d",

	CornerRadius:  8,
	BadgeRadius:   4,
	BadgePadding:  5,
	ArrowSize:     6,
	LabelSize:     11,
	FreqSize:      14,
	FreqOffset:    10,
	LetterSpacing: 1,
}
