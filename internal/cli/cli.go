package cli

import (
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/buildinfo"
	"github.com/matzehuels/clocktree/pkg/cache"
	"github.com/matzehuels/clocktree/pkg/devconf"
	"github.com/matzehuels/clocktree/pkg/pipeline"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "clocktree"

// Log levels a CLI starts at.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var logs logFlags
	root := &cobra.Command{
		Use:   appName,
		Short: "clocktree draws and explores SoC clock distribution trees",
		Long: `clocktree lays out a clock distribution tree (a PLL feeding dividers, bus
junctions and peripheral terminals), lets you pick divider ratios and shows the
resulting terminal frequencies, in the browser, in the terminal or as files.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logs.resolve(c.Logger.GetLevel(), os.Getenv(envLogLevel))
			if err != nil {
				return err
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	logs.register(root)

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.tableCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.topologyCommand())
	root.AddCommand(c.devconfCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.Instrumented(fc), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/clocktree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// diagramFlags are the inputs shared by every command that builds a diagram.
type diagramFlags struct {
	topology     string   // topology file; empty means the embedded reference tree
	deviceConfig string   // device TOML seeding the selections
	selects      []string // key=ratio overrides, applied after the device config
}

func (f *diagramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.topology, "topology", "t", "", "topology file (.toml or .yaml); default is the built-in tree")
	cmd.Flags().StringVarP(&f.deviceConfig, "device-config", "d", "", "device config TOML to read divider settings from")
	cmd.Flags().StringArrayVarP(&f.selects, "select", "s", nil, "divider selection as key=ratio, e.g. cpu_div=1/4 (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("select", completeSelections(f))
	_ = cmd.MarkFlagFilename("topology", "toml", "yaml", "yml")
	_ = cmd.MarkFlagFilename("device-config", "toml")
}

// load returns the topology and the initial selections.
func (f *diagramFlags) load() (*topology.Topology, map[string]string, error) {
	topo, err := loadTopology(f.topology)
	if err != nil {
		return nil, nil, err
	}
	selections := make(map[string]string)
	if f.deviceConfig != "" {
		dev, err := devconf.Load(f.deviceConfig)
		if err != nil {
			return nil, nil, err
		}
		if selections, err = devconf.Selections(topo, dev); err != nil {
			return nil, nil, err
		}
	}
	overrides, err := pipeline.ParseSelections(f.selects)
	if err != nil {
		return nil, nil, err
	}
	maps.Copy(selections, overrides)
	return topo, selections, nil
}

func loadTopology(path string) (*topology.Topology, error) {
	if path == "" {
		return topology.Default(), nil
	}
	return topology.Load(path)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
