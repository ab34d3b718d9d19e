package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/clocktree/pkg/controller"
	"github.com/matzehuels/clocktree/pkg/render"
	"github.com/matzehuels/clocktree/pkg/render/nodelink"
	"github.com/matzehuels/clocktree/pkg/render/sink"
	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// Build lays the diagram out headlessly at the options' container size with
// the options' selections applied. Options must have been validated.
func Build(topo *topology.Topology, opts Options) (*tree.Model, error) {
	c := controller.New(topo, nil, nil,
		controller.WithLogger(opts.Logger),
		controller.WithSelections(opts.Selections),
	)
	if err := c.Resize(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// Render generates output artifacts for m in the requested formats.
func Render(ctx context.Context, m *tree.Model, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := renderFormat(ctx, m, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, m *tree.Model, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return RenderSVG(m, opts), nil
	case FormatPNG:
		return RenderPNG(m, opts)
	case FormatJSON:
		return json.MarshalIndent(m, "", "  ")
	case FormatDOT:
		return []byte(nodelink.ToDOT(m, nodelink.Options{Detailed: opts.Detailed})), nil
	case FormatNodelink:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(m, nodelink.Options{Detailed: opts.Detailed}))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// RenderSVG draws m as SVG with static control faces.
func RenderSVG(m *tree.Model, opts Options) []byte {
	var svgOpts []sink.SVGOption
	if bg, ok := opts.fill(); ok {
		svgOpts = append(svgOpts, sink.WithBackground(bg))
	}
	if opts.EmbedFont {
		svgOpts = append(svgOpts, sink.WithEmbeddedFont())
	}
	s := sink.NewSVG(m.Frame.Width, m.Frame.Height, svgOpts...)
	render.New().RenderStatic(s, m)
	return s.Bytes()
}

// RenderPNG draws m as PNG with static control faces.
func RenderPNG(m *tree.Model, opts Options) ([]byte, error) {
	pngOpts := []sink.PNGOption{sink.WithPNGScale(opts.PNGScale)}
	if bg, ok := opts.fill(); ok {
		pngOpts = append(pngOpts, sink.WithPNGBackground(bg))
	}
	p := sink.NewPNG(m.Frame.Width, m.Frame.Height, pngOpts...)
	render.New().RenderStatic(p, m)
	return p.Bytes()
}

// fill returns the canvas color to paint, if any.
func (o Options) fill() (render.Color, bool) {
	if o.Background == "" || o.Background == Transparent {
		return "", false
	}
	return o.Background, true
}
