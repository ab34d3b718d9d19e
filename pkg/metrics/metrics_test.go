package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/observability"
)

type writer interface {
	Write(*dto.Metric) error
}

func value(t *testing.T, m writer) *dto.Metric {
	t.Helper()
	var metric dto.Metric
	if err := m.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return &metric
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.RebuildsTotal == nil || r.SelectionsTotal == nil || r.CacheHitsTotal == nil || r.HTTPRequestsTotal == nil {
		t.Fatal("collectors not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestOnRebuild(t *testing.T) {
	r := NewRegistry()
	r.OnRebuild(30, 0.5, 2*time.Millisecond, nil)
	r.OnRebuild(0, 0, time.Millisecond, errors.New(errors.ErrCodeMalformedTopology, "cycle"))

	ok, _ := r.RebuildsTotal.GetMetricWithLabelValues("success")
	if got := value(t, ok).Counter.GetValue(); got != 1 {
		t.Errorf("successful rebuilds = %v, want 1", got)
	}
	failed, _ := r.RebuildsTotal.GetMetricWithLabelValues("error")
	if got := value(t, failed).Counter.GetValue(); got != 1 {
		t.Errorf("failed rebuilds = %v, want 1", got)
	}
	if got := value(t, r.DiagramScale).Gauge.GetValue(); got != 0.5 {
		t.Errorf("scale = %v, want 0.5 from the last successful rebuild", got)
	}
	if got := value(t, r.DiagramNodes).Gauge.GetValue(); got != 30 {
		t.Errorf("nodes = %v, want 30", got)
	}
}

func TestOnSelect(t *testing.T) {
	r := NewRegistry()
	r.OnSelect("cpu_div", "1/3", 2, nil)
	r.OnSelect("cpu_div", "2/3", 0, errors.New(errors.ErrCodeMalformedRatio, "2/3"))
	r.OnSelect("wlan_div", "1/4", 9, nil)

	tests := []struct {
		divider, status string
		want            float64
	}{
		{"cpu_div", "success", 1},
		{"cpu_div", "malformed", 1},
		{"wlan_div", "success", 1},
	}
	for _, tt := range tests {
		t.Run(tt.divider+"/"+tt.status, func(t *testing.T) {
			c, err := r.SelectionsTotal.GetMetricWithLabelValues(tt.divider, tt.status)
			if err != nil {
				t.Fatal(err)
			}
			if got := value(t, c).Counter.GetValue(); got != tt.want {
				t.Errorf("count = %v, want %v", got, tt.want)
			}
		})
	}
	if got := value(t, r.TerminalsUpdated).Histogram.GetSampleCount(); got != 2 {
		t.Errorf("terminals histogram samples = %d, want 2", got)
	}
}

func TestOnRender(t *testing.T) {
	r := NewRegistry()
	r.OnRender(30, 29, 2, true, time.Millisecond)
	if got := value(t, r.HighlightActive).Gauge.GetValue(); got != 1 {
		t.Errorf("highlight = %v, want 1", got)
	}
	r.OnRender(30, 29, 0, false, time.Millisecond)
	if got := value(t, r.HighlightActive).Gauge.GetValue(); got != 0 {
		t.Errorf("highlight = %v, want 0", got)
	}
	if got := value(t, r.SkippedConnections).Counter.GetValue(); got != 2 {
		t.Errorf("skipped = %v, want 2", got)
	}
	if got := value(t, r.RendersTotal).Counter.GetValue(); got != 2 {
		t.Errorf("renders = %v, want 2", got)
	}
}

func TestInstallAndHandler(t *testing.T) {
	defer observability.Reset()
	r := NewRegistry()
	r.Install()

	ctx := context.Background()
	observability.Diagram().OnDegenerateContainer(0, 0)
	observability.Cache().OnCacheHit(ctx, "artifact")
	observability.Cache().OnCacheSet(ctx, "artifact", 512)
	observability.Export().OnExportComplete(ctx, []string{"svg", "png"}, time.Second, nil)
	observability.HTTP().OnResponse(ctx, "GET", "/diagram.svg", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		"clocktree_degenerate_containers_total 1",
		`clocktree_cache_hits_total{type="artifact"} 1`,
		`clocktree_cache_written_bytes_total{type="artifact"} 512`,
		`clocktree_exports_total{format="png",status="success"} 1`,
		`clocktree_http_requests_total{method="GET",route="/diagram.svg",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
