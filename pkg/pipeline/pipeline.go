// Package pipeline exports static renderings of a clock tree.
//
// An export builds the diagram headlessly at a given container size, applies
// the requested divider selections, and renders it in one or more formats.
// Artifacts are cached by topology content and options, so the web host and
// the CLI share results.
//
// # Formats
//
//   - svg: the diagram as SVG, with selection controls drawn as static faces
//   - png: the same diagram rasterized
//   - json: the positioned model (nodes, connections, frame)
//   - dot: the tree as a Graphviz DOT graph
//   - nodelink: the DOT graph laid out by Graphviz, as SVG
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, topo, pipeline.Options{
//	    Formats:    []string{"svg", "png"},
//	    Selections: map[string]string{"cpu_div": "1/4"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clocktree/pkg/cache"
	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/render"
	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultPNGScale is the pixel density of PNG exports.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatNodelink = "nodelink"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatJSON:     true,
	FormatDOT:      true,
	FormatNodelink: true,
}

// ContentTypes maps formats to HTTP content types.
var ContentTypes = map[string]string{
	FormatSVG:      "image/svg+xml",
	FormatPNG:      "image/png",
	FormatJSON:     "application/json",
	FormatDOT:      "text/vnd.graphviz",
	FormatNodelink: "image/svg+xml",
}

// Extensions maps formats to file extensions.
var Extensions = map[string]string{
	FormatSVG:      ".svg",
	FormatPNG:      ".png",
	FormatJSON:     ".json",
	FormatDOT:      ".dot",
	FormatNodelink: ".nodelink.svg",
}

// =============================================================================
// Options
// =============================================================================

// Transparent is the Background value that leaves the canvas unpainted.
const Transparent render.Color = "none"

// Options configures one export. It supports JSON for API requests.
type Options struct {
	// Container size. Zero means the topology canvas size.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Formats to produce. Empty means svg.
	Formats []string `json:"formats,omitempty"`

	// Selections by divider key, applied over the topology defaults.
	Selections map[string]string `json:"selections,omitempty"`

	// Background fills the SVG and PNG canvas. Empty means the theme
	// background; Transparent leaves the canvas clear.
	Background render.Color `json:"background,omitempty"`

	// EmbedFont embeds the label font in SVG output.
	EmbedFont bool `json:"embed_font,omitempty"`

	// PNGScale is the PNG pixel density. Zero means DefaultPNGScale.
	PNGScale float64 `json:"png_scale,omitempty"`

	// Detailed adds keys and kinds to DOT labels.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh bypasses the cache for reads.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives progress output. Nil discards it.
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of an export.
type Result struct {
	// Model is the positioned diagram. Nil when every artifact came from the cache.
	Model *tree.Model

	// TopologyHash is the content hash of the topology.
	TopologyHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheHit reports that every artifact came from the cache.
	CacheHit bool
}

// Stats contains export statistics.
type Stats struct {
	Nodes      int
	BuildTime  time.Duration
	RenderTime time.Duration
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if err := errors.ValidateFormat(format, ValidFormats); err != nil {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, json, dot, nodelink)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseSelections parses "key=ratio" pairs such as "cpu_div=1/4", as given
// on the command line or in query strings. Later pairs win.
func ParseSelections(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "selection %q: want key=ratio", p)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// ValidateAndSetDefaults checks the options and fills defaults from topo.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults(topo *topology.Topology) error {
	if topo == nil {
		return errors.New(errors.ErrCodeMalformedTopology, "no topology")
	}
	if o.Width == 0 {
		o.Width = topo.Canvas.Width
	}
	if o.Height == 0 {
		o.Height = topo.Canvas.Height
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Background == "" {
		o.Background = render.DefaultTheme.Background
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.PNGScale < 0 || o.PNGScale > 8 {
		return errors.New(errors.ErrCodeInvalidInput, "png scale must be in (0, 8], got %g", o.PNGScale)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Width:      o.Width,
		Height:     o.Height,
		Selections: o.Selections,
	}
	switch format {
	case FormatSVG:
		k.Background = string(o.Background)
		k.Embedded = o.EmbedFont
	case FormatPNG:
		k.Background = string(o.Background)
		k.Scale = o.PNGScale
	case FormatDOT, FormatNodelink:
		k.Detailed = o.Detailed
	}
	return k
}
