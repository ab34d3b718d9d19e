// Package metrics exposes Prometheus collectors for the diagram engine and
// implements the observability hooks on top of them.
//
// Register a [Registry] at startup and serve [Registry.Handler] on /metrics:
//
//	reg := metrics.NewRegistry()
//	reg.Install()
//	r.Handle("/metrics", reg.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/observability"
)

// Registry holds every collector on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	// Diagram
	RebuildsTotal        *prometheus.CounterVec
	RebuildDuration      prometheus.Histogram
	DiagramNodes         prometheus.Gauge
	DiagramScale         prometheus.Gauge
	DegenerateContainers prometheus.Counter
	SelectionsTotal      *prometheus.CounterVec
	TerminalsUpdated     prometheus.Histogram
	RendersTotal         prometheus.Counter
	RenderDuration       prometheus.Histogram
	SkippedConnections   prometheus.Counter
	HighlightActive      prometheus.Gauge

	// Export
	ExportsTotal   *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec

	// Cache
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheBytesTotal  *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initDiagramMetrics()
	r.initExportMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

// Gatherer returns the underlying Prometheus registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as the global diagram, export, cache and HTTP hooks.
func (r *Registry) Install() {
	observability.SetDiagramHooks(r)
	observability.SetExportHooks(r)
	observability.SetCacheHooks(r)
	observability.SetHTTPHooks(r)
}

func (r *Registry) initDiagramMetrics() {
	f := promauto.With(r.registry)
	r.RebuildsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clocktree_rebuilds_total",
			Help: "Total number of full diagram rebuilds",
		},
		[]string{"status"}, // success, error
	)
	r.RebuildDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clocktree_rebuild_duration_seconds",
			Help:    "Duration of full diagram rebuilds in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)
	r.DiagramNodes = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "clocktree_diagram_nodes",
			Help: "Number of nodes in the current diagram",
		},
	)
	r.DiagramScale = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "clocktree_diagram_scale",
			Help: "Scale of the current diagram",
		},
	)
	r.DegenerateContainers = f.NewCounter(
		prometheus.CounterOpts{
			Name: "clocktree_degenerate_containers_total",
			Help: "Rebuilds whose container was too small and got clamped",
		},
	)
	r.SelectionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clocktree_selections_total",
			Help: "Divider selections by divider and outcome",
		},
		[]string{"divider", "status"},
	)
	r.TerminalsUpdated = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clocktree_selection_terminals_updated",
			Help:    "Number of terminals updated per selection",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		},
	)
	r.RendersTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "clocktree_renders_total",
			Help: "Total number of render passes",
		},
	)
	r.RenderDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clocktree_render_duration_seconds",
			Help:    "Duration of render passes in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)
	r.SkippedConnections = f.NewCounter(
		prometheus.CounterOpts{
			Name: "clocktree_skipped_connections_total",
			Help: "Connections skipped because an endpoint was missing",
		},
	)
	r.HighlightActive = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "clocktree_highlight_active",
			Help: "Whether the last render drew the low-frequency badge (1=yes, 0=no)",
		},
	)
}

func (r *Registry) initExportMetrics() {
	f := promauto.With(r.registry)
	r.ExportsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clocktree_exports_total",
			Help: "Total number of exports by format and outcome",
		},
		[]string{"format", "status"},
	)
	r.ExportDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clocktree_export_duration_seconds",
			Help:    "Duration of exports in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"formats"},
	)
}

func (r *Registry) initCacheMetrics() {
	f := promauto.With(r.registry)
	r.CacheHitsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clocktree_cache_hits_total",
			Help: "Cache hits by key type",
		},
		[]string{"type"},
	)
	r.CacheMissesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clocktree_cache_misses_total",
			Help: "Cache misses by key type",
		},
		[]string{"type"},
	)
	r.CacheBytesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clocktree_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		},
		[]string{"type"},
	)
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)
	r.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clocktree_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	r.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clocktree_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// =============================================================================
// Hooks
// =============================================================================

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnRebuild implements [observability.DiagramHooks].
func (r *Registry) OnRebuild(nodes int, scale float64, d time.Duration, err error) {
	r.RebuildsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	r.RebuildDuration.Observe(d.Seconds())
	r.DiagramNodes.Set(float64(nodes))
	r.DiagramScale.Set(scale)
}

// OnSelect implements [observability.DiagramHooks].
func (r *Registry) OnSelect(divider, _ string, updated int, err error) {
	st := status(err)
	if errors.Is(err, errors.ErrCodeMalformedRatio) {
		st = "malformed"
	}
	r.SelectionsTotal.WithLabelValues(divider, st).Inc()
	if err == nil {
		r.TerminalsUpdated.Observe(float64(updated))
	}
}

// OnRender implements [observability.DiagramHooks].
func (r *Registry) OnRender(_, _, skipped int, badged bool, d time.Duration) {
	r.RendersTotal.Inc()
	r.RenderDuration.Observe(d.Seconds())
	r.SkippedConnections.Add(float64(skipped))
	if badged {
		r.HighlightActive.Set(1)
	} else {
		r.HighlightActive.Set(0)
	}
}

// OnDegenerateContainer implements [observability.DiagramHooks].
func (r *Registry) OnDegenerateContainer(float64, float64) {
	r.DegenerateContainers.Inc()
}

// OnExportStart implements [observability.ExportHooks].
func (r *Registry) OnExportStart(context.Context, []string) {}

// OnExportComplete implements [observability.ExportHooks].
func (r *Registry) OnExportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		r.ExportsTotal.WithLabelValues(f, status(err)).Inc()
	}
	r.ExportDuration.WithLabelValues(strings.Join(formats, ",")).Observe(d.Seconds())
}

// OnCacheHit implements [observability.CacheHooks].
func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheHitsTotal.WithLabelValues(keyType).Inc()
}

// OnCacheMiss implements [observability.CacheHooks].
func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheMissesTotal.WithLabelValues(keyType).Inc()
}

// OnCacheSet implements [observability.CacheHooks].
func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheBytesTotal.WithLabelValues(keyType).Add(float64(size))
}

// OnResponse implements [observability.HTTPHooks].
func (r *Registry) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.DiagramHooks = (*Registry)(nil)
	_ observability.ExportHooks  = (*Registry)(nil)
	_ observability.CacheHooks   = (*Registry)(nil)
	_ observability.HTTPHooks    = (*Registry)(nil)
)
