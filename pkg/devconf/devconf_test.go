package devconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/topology"
)

const device = `
[[dev]]
dev_name = "uart0"
baud_rate = 115200

[[dev]]
dev_name = "rcc"

[dev.init_cfg]
init_level = "boot"
init_priority = 9

[[dev.rcc_cfg]]
type = "cpu"
clock = 80

[[dev.rcc_cfg]]
type = "wlan"
clock = 120

[[dev.rcc_cfg]]
type = "peripheral"
clock = 40
`

func TestSelections(t *testing.T) {
	f, err := Parse([]byte(device))
	if err != nil {
		t.Fatal(err)
	}
	got, err := Selections(topology.Default(), f)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"cpu_div": "1/6", "wlan_div": "1/4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Selections (-want +got):\n%s", diff)
	}
}

func TestSelectionsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not a divisor", "[[dev]]\ndev_name = \"rcc\"\n[[dev.rcc_cfg]]\ntype = \"cpu\"\nclock = 100\n"},
		{"above base", "[[dev]]\ndev_name = \"rcc\"\n[[dev.rcc_cfg]]\ntype = \"cpu\"\nclock = 960\n"},
		{"zero", "[[dev]]\ndev_name = \"rcc\"\n[[dev.rcc_cfg]]\ntype = \"wlan\"\nclock = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Selections(topology.Default(), f); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Selections() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestSelectionsWithoutRCC(t *testing.T) {
	f, err := Parse([]byte("[[dev]]\ndev_name = \"uart0\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	sel, err := Selections(topology.Default(), f)
	if err != nil || len(sel) != 0 {
		t.Errorf("Selections() = %v, %v; want empty", sel, err)
	}
}

func TestUpdate(t *testing.T) {
	topo := topology.Default()
	out, err := Update([]byte(device), topo, map[string]string{"cpu_div": "1/4"})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Parse(out)
	if err != nil {
		t.Fatalf("updated file does not parse: %v\n%s", err, out)
	}
	dev, ok := f.RCC()
	if !ok {
		t.Fatal("rcc device lost")
	}
	want := []RCCEntry{{Type: "cpu", Clock: 120}, {Type: "wlan", Clock: 160}}
	if diff := cmp.Diff(want, dev.Clock); diff != "" {
		t.Errorf("rcc_cfg (-want +got):\n%s", diff)
	}
	if f.Devices[0].Name != "uart0" {
		t.Errorf("other devices not preserved: %+v", f.Devices)
	}

	sel, err := Selections(topo, f)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"cpu_div": "1/4", "wlan_div": "1/3"}, sel); diff != "" {
		t.Errorf("round trip selections (-want +got):\n%s", diff)
	}
}

func TestUpdateErrors(t *testing.T) {
	topo := topology.Default()
	if _, err := Update([]byte("[[dev]]\ndev_name = \"uart0\"\n"), topo, nil); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("no rcc device: %v, want NOT_FOUND", err)
	}
	if _, err := Update([]byte(device), topo, map[string]string{"cpu_div": "half"}); !errors.Is(err, errors.ErrCodeMalformedRatio) {
		t.Errorf("bad selection: %v, want MALFORMED_RATIO", err)
	}
	if _, err := Update([]byte(device), topo, map[string]string{"cpu_div": "1/7"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("uneven ratio: %v, want INVALID_INPUT", err)
	}
	if _, err := Update([]byte("dev = ["), topo, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad toml: %v, want INVALID_INPUT", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.toml")
	if err := os.WriteFile(path, []byte(device), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Devices) != 2 {
		t.Errorf("devices = %d, want 2", len(f.Devices))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v, want FILE_NOT_FOUND", err)
	}
}
