package propagation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

var apbKeys = []string{"high_spi_slave", "i2c", "spi", "uart", "card_7816", "gpio", "wdt", "timer"}

func setup(t *testing.T) (*tree.Model, *Propagator) {
	t.Helper()
	topo := topology.Default()
	m, err := tree.Build(topo, tree.Frame{Width: 1400, Height: 1000, Scale: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m, New(topo.Propagation)
}

func freqOf(t *testing.T, m *tree.Model, key string) string {
	t.Helper()
	n, ok := m.ByKey(key)
	if !ok {
		t.Fatalf("node %s missing", key)
	}
	if n.Freq == nil {
		return ""
	}
	return n.Freq.String()
}

func idOf(t *testing.T, m *tree.Model, key string) string {
	t.Helper()
	n, ok := m.ByKey(key)
	if !ok {
		t.Fatalf("node %s missing", key)
	}
	return n.ID
}

// snapshot returns every terminal's frequency keyed by node key.
func snapshot(m *tree.Model) map[string]string {
	out := make(map[string]string)
	for _, n := range m.Terminals() {
		if n.Freq != nil {
			out[n.Key] = n.Freq.String()
		}
	}
	return out
}

func TestPropagateCPU(t *testing.T) {
	tests := []struct {
		option string
		want   string
	}{
		{"1/2", "240MHz"},
		{"1/6", "80MHz"},
		{"1/7", "68MHz"},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			m, p := setup(t)
			before := snapshot(m)

			updated, err := p.Propagate(m, idOf(t, m, "cpu_div"), tt.option)
			if err != nil {
				t.Fatalf("Propagate: %v", err)
			}
			if len(updated) != 2 {
				t.Errorf("updated %d terminals, want 2", len(updated))
			}
			for _, key := range []string{"cpu", "dma"} {
				if got := freqOf(t, m, key); got != tt.want {
					t.Errorf("%s = %s, want %s", key, got, tt.want)
				}
				delete(before, key)
			}

			// Nothing else changes.
			after := snapshot(m)
			delete(after, "cpu")
			delete(after, "dma")
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("unrelated terminals changed (-before +after):\n%s", diff)
			}
		})
	}
}

func TestPropagateWLAN(t *testing.T) {
	tests := []struct {
		option   string
		wifi     string
		indirect string
	}{
		{"1/3", "160MHz", "40MHz"},
		{"1/4", "120MHz", "30MHz"},
		{"1/48", "10MHz", "2.5MHz"},
		{"1/160", "3MHz", "750KHz"},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			m, p := setup(t)
			updated, err := p.Propagate(m, idOf(t, m, "wlan_div"), tt.option)
			if err != nil {
				t.Fatalf("Propagate: %v", err)
			}
			if len(updated) != 9 {
				t.Errorf("updated %d terminals, want 9", len(updated))
			}
			if got := freqOf(t, m, "wifi"); got != tt.wifi {
				t.Errorf("wifi = %s, want %s", got, tt.wifi)
			}
			for _, key := range apbKeys {
				if got := freqOf(t, m, key); got != tt.indirect {
					t.Errorf("%s = %s, want %s", key, got, tt.indirect)
				}
			}
			for _, key := range []string{"cpu", "qflash", "touch_sensor", "adc"} {
				before := freqOf(t, m, key)
				if before == "" {
					t.Errorf("%s lost its frequency", key)
				}
			}
			div, _ := m.ByKey("wlan_div")
			if div.Selected != tt.option {
				t.Errorf("Selected = %q, want %q", div.Selected, tt.option)
			}
		})
	}
}

func TestPropagateMalformedIsNoop(t *testing.T) {
	for _, option := range []string{"", "abc", "1/0", "2/3", "1/x"} {
		t.Run(option, func(t *testing.T) {
			m, p := setup(t)
			id := idOf(t, m, "wlan_div")
			before := snapshot(m)

			updated, err := p.Propagate(m, id, option)
			if !errors.Is(err, errors.ErrCodeMalformedRatio) {
				t.Fatalf("err = %v, want MALFORMED_RATIO", err)
			}
			if updated != nil {
				t.Error("malformed ratio should update nothing")
			}
			if diff := cmp.Diff(before, snapshot(m)); diff != "" {
				t.Errorf("frequencies changed (-before +after):\n%s", diff)
			}
			div, _ := m.Node(id)
			if div.Selected != "1/3" {
				t.Errorf("Selected = %q, want the previous 1/3", div.Selected)
			}
		})
	}
}

func TestPropagateErrors(t *testing.T) {
	m, p := setup(t)

	if _, err := p.Propagate(m, "missing", "1/2"); !errors.Is(err, errors.ErrCodeMissingNode) {
		t.Errorf("unknown id err = %v, want MISSING_NODE", err)
	}
	if _, err := p.Propagate(m, idOf(t, m, "cpu"), "1/2"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("terminal id err = %v, want INVALID_INPUT", err)
	}

	// A fixed divider has no control and takes no selection.
	sys, _ := m.ByKey("sys_div")
	before := snapshot(m)
	if _, err := p.Propagate(m, sys.ID, "1/7"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("fixed divider err = %v, want INVALID_INPUT", err)
	}
	if sys.Selected != "" || sys.Label != "1/3" {
		t.Errorf("fixed divider = label %q selected %q", sys.Label, sys.Selected)
	}
	if diff := cmp.Diff(before, snapshot(m)); diff != "" {
		t.Errorf("fixed divider changed frequencies:\n%s", diff)
	}
}

func TestPropagateWithoutRule(t *testing.T) {
	m, _ := setup(t)
	before := snapshot(m)
	cpuDiv := idOf(t, m, "cpu_div")

	updated, err := New(nil).Propagate(m, cpuDiv, "1/4")
	if err != nil || updated != nil {
		t.Fatalf("ruleless divider = %v, %v", updated, err)
	}
	if n, _ := m.Node(cpuDiv); n.Selected != "1/4" {
		t.Errorf("selected = %q, want 1/4", n.Selected)
	}
	if diff := cmp.Diff(before, snapshot(m)); diff != "" {
		t.Errorf("ruleless divider changed frequencies:\n%s", diff)
	}
}

func TestApplySelections(t *testing.T) {
	m, p := setup(t)
	err := p.ApplySelections(m, map[string]string{
		"cpu_div":  "1/4",
		"wlan_div": "1/4",
		"unknown":  "1/2",
	})
	if err != nil {
		t.Fatalf("ApplySelections: %v", err)
	}
	if got := freqOf(t, m, "cpu"); got != "120MHz" {
		t.Errorf("cpu = %s", got)
	}
	if got := freqOf(t, m, "uart"); got != "30MHz" {
		t.Errorf("uart = %s", got)
	}

	err = p.ApplySelections(m, map[string]string{"cpu_div": "bad", "wlan_div": "1/2"})
	if !errors.Is(err, errors.ErrCodeMalformedRatio) {
		t.Errorf("err = %v, want MALFORMED_RATIO", err)
	}
	if got := freqOf(t, m, "wifi"); got != "240MHz" {
		t.Errorf("later selections should still apply, wifi = %s", got)
	}
	if got := freqOf(t, m, "cpu"); got != "120MHz" {
		t.Errorf("malformed selection changed cpu to %s", got)
	}
}
