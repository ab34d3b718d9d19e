package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/internal/server"
	"github.com/matzehuels/clocktree/pkg/controller"
	"github.com/matzehuels/clocktree/pkg/devconf"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// runCLI executes the root command with args and returns what it wrote to
// its output stream.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTopologyDump(t *testing.T) {
	out, err := runCLI(t, "topology", "dump")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if out != string(topology.DefaultSource()) {
		t.Error("toml dump differs from the built-in source")
	}

	out, err = runCLI(t, "topology", "dump", "--format", "yaml")
	if err != nil {
		t.Fatalf("dump yaml: %v", err)
	}
	if !strings.Contains(out, "cpu_div") {
		t.Errorf("yaml dump missing cpu_div:\n%s", out)
	}

	if _, err := runCLI(t, "topology", "dump", "--format", "xml"); err == nil {
		t.Error("dump xml: expected error")
	}
}

func TestTopologyValidate(t *testing.T) {
	good := writeFile(t, "board.toml", string(topology.DefaultSource()))
	bad := writeFile(t, "broken.toml", "name = [\n")

	if _, err := runCLI(t, "topology", "validate", good); err != nil {
		t.Errorf("validate good: %v", err)
	}
	out, err := runCLI(t, "topology", "validate", good, bad)
	if !strings.Contains(out, iconError) {
		t.Errorf("validate output has no failure line:\n%s", out)
	}
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("validate mixed: err = %v, want 1 of 2 invalid", err)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out", "board")

	out, err := runCLI(t, "render", "--no-cache", "-f", "svg,json", "-s", "cpu_div=1/4", "-o", base)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Rendered rcc", base + ".svg", base + ".json", "1 selections", iconFresh} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, ext := range []string{".svg", ".json"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			t.Fatalf("read %s: %v", ext, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", ext)
		}
	}

	if _, err := runCLI(t, "render", "-f", "pdf", "-o", base); err == nil {
		t.Error("render pdf: expected error")
	}
	if _, err := runCLI(t, "render", "-s", "cpu_div", "-o", base); err == nil {
		t.Error("render with malformed selection: expected error")
	}
	if _, err := runCLI(t, "render", "--no-cache", "-s", "sys_div=1/7", "-o", base); err == nil {
		t.Error("render selecting a fixed divider: expected error")
	}
}

func TestRenderBackground(t *testing.T) {
	dir := t.TempDir()
	const canvas = `<rect x="0" y="0" width="1400" height="1000"`

	tests := []struct {
		name  string
		args  []string
		fill  string
		clear bool
	}{
		{"default", nil, `fill="#1f2d3d"`, false},
		{"color", []string{"--background", "#ffffff"}, `fill="#ffffff"`, false},
		{"empty", []string{"--background", ""}, "", true},
		{"none", []string{"--background", "none"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".svg")
			args := append([]string{"render", "--no-cache", "-o", path}, tt.args...)
			if _, err := runCLI(t, args...); err != nil {
				t.Fatalf("render: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			svg := string(data)
			if tt.clear {
				if strings.Contains(svg, canvas) {
					t.Error("transparent render painted a background")
				}
				return
			}
			if !strings.Contains(svg, canvas+" "+tt.fill) {
				t.Errorf("svg lacks background %s", tt.fill)
			}
		})
	}
}

func TestTableCommand(t *testing.T) {
	out, err := runCLI(t, "table", "-s", "wlan_div=1/4")
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	for _, want := range []string{"Terminal", "Frequency", "120MHz", "1/4"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if _, err := runCLI(t, "table", "-s", "nope_div=1/2"); err == nil {
		t.Error("table with unknown divider: expected error")
	}
	if _, err := runCLI(t, "table", "-s", "cpu_div=2/3"); err == nil {
		t.Error("table with malformed ratio: expected error")
	}
	if _, err := runCLI(t, "table", "-s", "sys_div=1/7"); err == nil {
		t.Error("table selecting a fixed divider: expected error")
	}
}

func TestDevconfRoundTrip(t *testing.T) {
	path := writeFile(t, "device.toml", `
[[dev]]
dev_name = "uart0"

[[dev]]
dev_name = "rcc"

[[dev.rcc_cfg]]
type = "cpu"
clock = 240
`)

	if _, err := runCLI(t, "devconf", "write", path, "-s", "cpu_div=1/4"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := devconf.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := devconf.Selections(topology.Default(), f)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"cpu_div": "1/4", "wlan_div": "1/3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("selections after write (-want +got):\n%s", diff)
	}

	if _, err := runCLI(t, "devconf", "write", path, "-s", "cpu_div=1/7"); err == nil {
		t.Error("write with an uneven ratio: expected error")
	}
	if _, err := runCLI(t, "table", "-d", path); err != nil {
		t.Errorf("device file unreadable after rejected write: %v", err)
	}

	out, err := runCLI(t, "devconf", "show", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "cpu_div") || !strings.Contains(out, "1/4") {
		t.Errorf("show output = %q", out)
	}
	if _, err := runCLI(t, "devconf", "show", filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("show missing file: expected error")
	}
}

func TestCachePath(t *testing.T) {
	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestServeFlagsConfig(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cfgFile := writeFile(t, "serve.yaml", `
app:
  http:
    host: 0.0.0.0
    port: 9100
cache:
  backend: none
`)

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *server.Config)
		wantErr bool
	}{
		{
			name: "defaults use the file cache",
			check: func(t *testing.T, cfg *server.Config) {
				if cfg.Cache.Backend != server.CacheFile || cfg.App.HTTP.Port != 8480 {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "config file",
			args: []string{"--config", cfgFile},
			check: func(t *testing.T, cfg *server.Config) {
				if cfg.App.HTTP.Address() != "0.0.0.0:9100" || cfg.Cache.Backend != server.CacheNone {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "flags win over the file",
			args: []string{"--config", cfgFile, "--port", "9000", "--redis", "redis://localhost:6379/0"},
			check: func(t *testing.T, cfg *server.Config) {
				if cfg.App.HTTP.Address() != "0.0.0.0:9000" {
					t.Errorf("address = %s", cfg.App.HTTP.Address())
				}
				if cfg.Cache.Backend != server.CacheRedis || cfg.Cache.RedisURL != "redis://localhost:6379/0" {
					t.Errorf("cache = %+v", cfg.Cache)
				}
			},
		},
		{
			name: "no-cache",
			args: []string{"--no-cache"},
			check: func(t *testing.T, cfg *server.Config) {
				if cfg.Cache.Backend != server.CacheNone {
					t.Errorf("backend = %s", cfg.Cache.Backend)
				}
			},
		},
		{name: "watch needs a topology", args: []string{"--watch"}, wantErr: true},
		{name: "port out of range", args: []string{"--port", "70000"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f serveFlags
			cmd := &cobra.Command{Use: "serve"}
			f.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			cfg, err := f.config(cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("config() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func newTestModel(t *testing.T) DiagramModel {
	t.Helper()
	topo := topology.Default()
	host := newTUIHost()
	ctrl := controller.New(topo, nil, host, controller.WithLogger(log.New(io.Discard)))
	if err := ctrl.Resize(topo.Canvas.Width, topo.Canvas.Height); err != nil {
		t.Fatal(err)
	}
	m := NewDiagramModel(ctrl, host)
	m.focus = "cpu_div"
	return m
}

func press(t *testing.T, m DiagramModel, k tea.KeyType) DiagramModel {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: k})
	dm := next.(DiagramModel)
	if dm.err != nil {
		t.Fatalf("key %v: %v", k, dm.err)
	}
	return dm
}

func TestDiagramModelStep(t *testing.T) {
	m := newTestModel(t)
	if n := len(m.host.controls()); n != 2 {
		t.Fatalf("controls = %d, want 2", n)
	}

	m = press(t, m, tea.KeyRight)
	if got := m.ctrl.Selections()["cpu_div"]; got != "1/3" {
		t.Errorf("after right: cpu_div = %q, want 1/3", got)
	}
	m = press(t, m, tea.KeyLeft)
	m = press(t, m, tea.KeyLeft)
	if got := m.ctrl.Selections()["cpu_div"]; got != "1/2" {
		t.Errorf("after left twice: cpu_div = %q, want 1/2", got)
	}

	m = press(t, m, tea.KeyDown)
	if m.focus != "wlan_div" {
		t.Errorf("focus = %q, want wlan_div", m.focus)
	}
	m = press(t, m, tea.KeyRight)
	if got := m.ctrl.Selections()["wlan_div"]; got != "1/4" {
		t.Errorf("wlan_div = %q, want 1/4", got)
	}
	if n := len(m.host.controls()); n != 2 {
		t.Errorf("controls after selections = %d, want 2", n)
	}
}

func TestDiagramModelResizeAndView(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(DiagramModel)
	if m.err != nil {
		t.Fatalf("resize: %v", m.err)
	}
	if s := m.ctrl.Scale(); s <= 0 || s >= 1 {
		t.Errorf("scale = %v, want within (0, 1)", s)
	}

	view := m.View()
	for _, want := range []string{"scale", "Terminal", "Frequency"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "divider keys",
			args: []string{"__complete", "table", "-s", ""},
			want: []string{"cpu_div=", "wlan_div="},
			// fixed dividers have no options
			notWant: []string{"sys_div="},
		},
		{
			name: "divider ratios",
			args: []string{"__complete", "render", "-s", "wlan_div="},
			want: []string{"wlan_div=1/2", "wlan_div=1/12"},
		},
		{
			name:    "formats skip chosen ones",
			args:    []string{"__complete", "render", "-f", "svg,"},
			want:    []string{"svg,png", "svg,nodelink"},
			notWant: []string{"svg,svg"},
		},
		{
			name: "shell scripts",
			args: []string{"completion", "bash"},
			want: []string{"clocktree"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("unexpected %q in:\n%s", w, out)
				}
			}
		})
	}
}

func TestDiagramKeyHelp(t *testing.T) {
	seen := make(map[string]string)
	for _, group := range diagramKeys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			if prev, ok := seen[h.Key]; ok {
				t.Errorf("help key %q used by %q and %q", h.Key, prev, h.Desc)
			}
			seen[h.Key] = h.Desc
		}
	}
	for _, b := range diagramKeys.ShortHelp() {
		if _, ok := seen[b.Help().Key]; !ok {
			t.Errorf("short help %q missing from full help", b.Help().Key)
		}
	}
}
