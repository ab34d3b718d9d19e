// Package server is the web host: it serves one live diagram whose selection
// controls are HTML selects laid over the rendered frame, plus stateless
// exports, metrics and health endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/clocktree/pkg/buildinfo"
	"github.com/matzehuels/clocktree/pkg/cache"
	"github.com/matzehuels/clocktree/pkg/controller"
	"github.com/matzehuels/clocktree/pkg/devconf"
	"github.com/matzehuels/clocktree/pkg/metrics"
	"github.com/matzehuels/clocktree/pkg/pipeline"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRunner sets the export runner. The default has no cache.
func WithRunner(r *pipeline.Runner) Option { return func(s *Server) { s.runner = r } }

// WithMetrics sets the metrics registry. The default is metrics.DefaultRegistry().
func WithMetrics(r *metrics.Registry) Option { return func(s *Server) { s.metrics = r } }

// Server hosts one live diagram.
type Server struct {
	cfg     *Config
	logger  *log.Logger
	runner  *pipeline.Runner
	metrics *metrics.Registry
	events  *Broker

	host *controller.HeadlessHost
	ctrl *controller.Controller
}

// New builds the diagram for topo at the configured size. Selections are
// seeded from the device config when one is set.
func New(cfg *Config, topo *topology.Topology, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		logger: log.Default(),
		host:   controller.NewHeadlessHost(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.DefaultRegistry()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if topo == nil {
		topo = topology.Default()
	}

	var selections map[string]string
	if cfg.Topology.DeviceConfig != "" {
		f, err := devconf.Load(cfg.Topology.DeviceConfig)
		if err != nil {
			return nil, err
		}
		if selections, err = devconf.Selections(topo, f); err != nil {
			return nil, err
		}
		s.logger.Info("selections from device config", "path", cfg.Topology.DeviceConfig, "selections", selections)
	}

	s.ctrl = controller.New(topo, nil, s.host,
		controller.WithLogger(s.logger),
		controller.WithHooks(s.metrics),
		controller.WithSelections(selections),
	)
	w, h := cfg.Topology.Width, cfg.Topology.Height
	if w == 0 || h == 0 {
		w, h = topo.Canvas.Width, topo.Canvas.Height
	}
	if err := s.ctrl.Resize(w, h); err != nil {
		return nil, err
	}
	s.events = NewBroker()
	return s, nil
}

// Controller returns the live diagram controller.
func (s *Server) Controller() *controller.Controller { return s.ctrl }

// Events returns the event broker.
func (s *Server) Events() *Broker { return s.events }

// Reload swaps the served topology and notifies connected pages.
func (s *Server) Reload(topo *topology.Topology) error {
	if err := s.ctrl.Reload(topo); err != nil {
		s.events.Publish(Event{Type: EventError, Data: errorBody(err)})
		return err
	}
	s.events.Publish(Event{Type: EventReload, Data: s.ctrl.Frame()})
	return nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Get()})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/", s.handlePage)
	r.Get("/diagram.{format}", s.handleExport)

	r.Route("/api", func(r chi.Router) {
		r.Get("/frame", s.handleFrame)
		r.Post("/resize", s.handleResize)
		r.Post("/select", s.handleSelect)
		r.Get("/events", s.events.ServeHTTP)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully. With
// topology.watch set, the topology file is reloaded on change.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.App.HTTP.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if s.cfg.Topology.Watch {
		g.Go(func() error {
			return Watch(gCtx, s.cfg.Topology.Path, s.logger, s.Reload)
		})
	}

	g.Go(func() error {
		s.logger.Info("serving", "address", "http://"+httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down")
		s.events.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown", "err", err)
		}
		return nil
	})

	return g.Wait()
}

// Close releases the event broker and the runner's cache.
func (s *Server) Close() error {
	s.events.Close()
	return s.runner.Close()
}

// NewCache opens the artifact cache selected by cfg, instrumented for the
// metrics hooks, and the keyer matching its prefix.
func NewCache(ctx context.Context, cfg CacheConfig) (cache.Cache, cache.Keyer, error) {
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if cfg.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Prefix)
	}
	switch cfg.Backend {
	case CacheFile:
		c, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return cache.Instrumented(c), keyer, nil
	case CacheRedis:
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.Instrumented(c), keyer, nil
	default:
		return cache.NewNullCache(), keyer, nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		s.metrics.OnResponse(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", d,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
