package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/internal/server"
	"github.com/matzehuels/clocktree/pkg/config"
	"github.com/matzehuels/clocktree/pkg/metrics"
	"github.com/matzehuels/clocktree/pkg/pipeline"
)

// serveFlags holds the flags of the serve command. Flags that are set win
// over the config file.
type serveFlags struct {
	configPath   string
	host         string
	port         int
	topology     string
	watch        bool
	deviceConfig string
	noCache      bool
	redisURL     string
}

// serveCommand starts the web host.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive diagram in the browser",
		Long: `Serve hosts the diagram on a web page. Each divider is an HTML select laid
over the diagram; picking a ratio updates the terminal frequencies in place and
resizing the window rebuilds the layout.

Other endpoints:
  GET  /diagram.{svg,png,json,dot,nodelink}  stateless export, cached
  GET  /api/frame                             current frame, controls and SVG
  GET  /api/events                            server-sent reload and frame events
  GET  /metrics                               Prometheus metrics
  GET  /health/live                           liveness`,
		Example: `  clocktree serve
  clocktree serve -t board.toml --watch --port 9000
  clocktree serve --config serve.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), newPrinter(cmd.OutOrStdout()), cfg)
		},
	}

	flags.register(cmd)
	return cmd
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&f.host, "host", "", "listen host")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "listen port")
	cmd.Flags().StringVarP(&f.topology, "topology", "t", "", "topology file (.toml or .yaml)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "reload the topology file when it changes")
	cmd.Flags().StringVarP(&f.deviceConfig, "device-config", "d", "", "device config TOML to read divider settings from")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the export cache")
	cmd.Flags().StringVar(&f.redisURL, "redis", "", "cache exports in Redis at this URL instead of on disk")
}

// config layers defaults, the user cache directory, the config file and the
// flags that were set, in that order.
func (f *serveFlags) config(cmd *cobra.Command) (*server.Config, error) {
	cfg := server.NewDefaultConfig()
	if dir, err := cacheDir(); err == nil {
		cfg.Cache = server.CacheConfig{Backend: server.CacheFile, Dir: dir}
	}
	if err := config.LoadOptional(f.configPath, cfg); err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("host") {
		cfg.App.HTTP.Host = f.host
	}
	if set("port") {
		cfg.App.HTTP.Port = f.port
	}
	if set("topology") {
		cfg.Topology.Path = f.topology
	}
	if set("watch") {
		cfg.Topology.Watch = f.watch
	}
	if set("device-config") {
		cfg.Topology.DeviceConfig = f.deviceConfig
	}
	if set("redis") {
		cfg.Cache.Backend, cfg.Cache.RedisURL = server.CacheRedis, f.redisURL
	}
	if f.noCache {
		cfg.Cache.Backend = server.CacheNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CLI) runServe(ctx context.Context, p *printer, cfg *server.Config) error {
	logger := loggerFromContext(ctx)
	// --verbose wins over the configured level.
	if lvl, err := log.ParseLevel(cfg.App.LogLevel); err == nil && logger.GetLevel() == log.InfoLevel {
		logger.SetLevel(lvl)
	}

	topo, err := loadTopology(cfg.Topology.Path)
	if err != nil {
		return err
	}

	reg := metrics.DefaultRegistry()
	reg.Install()

	store, keyer, err := server.NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	logger.Debug("export cache", "backend", cfg.Cache.Backend, "dir", cfg.Cache.Dir)

	srv, err := server.New(cfg, topo,
		server.WithLogger(logger),
		server.WithMetrics(reg),
		server.WithRunner(pipeline.NewRunner(store, keyer, logger)),
	)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer srv.Close()

	p.success("Serving %s", topo.Name)
	p.keyValue("Address", StyleLink.Render("http://"+cfg.App.HTTP.Address()))
	if cfg.Topology.Watch {
		p.keyValue("Watching", cfg.Topology.Path)
	}
	return srv.Run(ctx)
}
