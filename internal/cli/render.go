package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/pipeline"
	"github.com/matzehuels/clocktree/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	diagramFlags
	output     string  // output file (single format) or base path (multiple)
	formats    string  // comma-separated output formats
	width      float64 // container width; 0 means the topology canvas
	height     float64 // container height; 0 means the topology canvas
	background string  // SVG/PNG background color
	embedFont  bool    // embed the label font in SVG output
	pngScale   float64 // PNG pixel density
	detailed   bool    // keys and kinds in DOT labels
	noCache    bool    // disable the artifact cache
	refresh    bool    // re-render even when cached
}

// renderCommand creates the render command for static exports.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the clock tree to SVG, PNG, JSON or DOT files",
		Long: `Render builds the clock tree at the given container size, applies the divider
selections and writes one file per format.

Selections come from --device-config first and are then overridden by --select.`,
		Example: `  clocktree render -s cpu_div=1/4 -f svg,png
  clocktree render -t board.toml -d device.toml -o out/board.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), newPrinter(cmd.OutOrStdout()), &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json, dot, nodelink (comma-separated)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "container width (default: topology canvas)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "container height (default: topology canvas)")
	cmd.Flags().StringVar(&opts.background, "background", string(render.DefaultTheme.Background), `background color, e.g. #ffffff ("" or none: transparent)`)
	cmd.Flags().BoolVar(&opts.embedFont, "embed-font", false, "embed the label font in SVG output")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", pipeline.DefaultPNGScale, "PNG pixel density")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node keys and kinds in DOT output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, p *printer, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}
	topo, selections, err := opts.load()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	background := render.Color(opts.background)
	if background == "" {
		background = pipeline.Transparent
	}

	prog := newProgress(logger)
	spinner := newSpinner(ctx, p, fmt.Sprintf("Rendering %s...", topo.Name))
	spinner.Start()
	res, err := runner.Execute(ctx, topo, pipeline.Options{
		Width:      opts.width,
		Height:     opts.height,
		Formats:    formats,
		Selections: selections,
		Background: background,
		EmbedFont:  opts.embedFont,
		PNGScale:   opts.pngScale,
		Detailed:   opts.detailed,
		Refresh:    opts.refresh,
		Logger:     logger,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %s", topo.Name))
	p.stats(res.Stats.Nodes, len(selections), res.CacheHit)

	for _, format := range formats {
		path := outputPath(opts.output, topo.Name, format, len(formats))
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("wrote artifact", "format", format, "path", path, "bytes", len(res.Artifacts[format]))
		p.file(path)
	}
	prog.done(fmt.Sprintf("Exported %d format(s)", len(formats)))
	return nil
}

// basePath derives the base output path. An empty output uses name; a known
// format extension on output is stripped.
func basePath(output, name string) string {
	if output == "" {
		return name
	}
	// longest first, so ".nodelink.svg" wins over ".svg"
	exts := slices.SortedFunc(maps.Values(pipeline.Extensions), func(a, b string) int { return len(b) - len(a) })
	for _, ext := range exts {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// outputPath returns the file for format. A single format honors output
// verbatim when it carries an extension.
func outputPath(output, name, format string, count int) string {
	if count == 1 && output != "" && filepath.Ext(output) != "" {
		return output
	}
	return basePath(output, name) + pipeline.Extensions[format]
}
