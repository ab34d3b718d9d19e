// Package devconf reads and writes the clock section of a device
// configuration file.
//
// A device file lists devices as [[dev]] tables. The clock controller is the
// device named "rcc"; each of its [[dev.rcc_cfg]] entries gives the target
// clock in MHz of one divider, identified by type:
//
//	[[dev]]
//	dev_name = "rcc"
//
//	[[dev.rcc_cfg]]
//	type = "cpu"
//	clock = 240
//
// A topology divider claims an entry through its rcc_type. The divider ratio
// is base/clock, where base is the divider's propagation base frequency.
package devconf

import (
	"bytes"
	"math"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/freq"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// DeviceName is the dev_name of the clock controller.
const DeviceName = "rcc"

// File is the part of a device file this package understands.
type File struct {
	Devices []Device `toml:"dev"`
}

// Device is one [[dev]] entry.
type Device struct {
	Name  string     `toml:"dev_name"`
	Clock []RCCEntry `toml:"rcc_cfg"`
}

// RCCEntry is the target clock of one divider type.
type RCCEntry struct {
	Type  string  `toml:"type"`
	Clock float64 `toml:"clock"`
}

// Load reads a device file.
func Load(path string) (*File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "device config %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read device config %s", path)
	}
	return Parse(data)
}

// Parse decodes a device file. Unknown keys are ignored: device files carry
// many other peripherals.
func Parse(data []byte) (*File, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse device config")
	}
	return &f, nil
}

// RCC returns the clock controller device.
func (f *File) RCC() (*Device, bool) {
	for i := range f.Devices {
		if f.Devices[i].Name == DeviceName {
			return &f.Devices[i], true
		}
	}
	return nil, false
}

// divider is a topology divider bound to an rcc_cfg type.
type divider struct {
	key  string
	base float64
}

func dividers(topo *topology.Topology) map[string]divider {
	bases := make(map[string]float64, len(topo.Propagation))
	for _, r := range topo.Propagation {
		bases[r.Divider] = r.BaseMHz
	}
	out := make(map[string]divider)
	for _, n := range topo.Nodes {
		if n.Kind != topology.KindDivider || n.RccType == "" {
			continue
		}
		if base, ok := bases[n.Key]; ok {
			out[n.RccType] = divider{key: n.Key, base: base}
		}
	}
	return out
}

// Selections maps the clock entries of f to divider selections ("1/N") keyed
// by divider node key. Entries whose type no divider claims are ignored. A
// missing rcc device yields no selections.
func Selections(topo *topology.Topology, f *File) (map[string]string, error) {
	sel := make(map[string]string)
	dev, ok := f.RCC()
	if !ok {
		return sel, nil
	}
	divs := dividers(topo)
	for _, e := range dev.Clock {
		d, ok := divs[e.Type]
		if !ok {
			continue
		}
		if e.Clock <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "rcc %s: clock must be positive, got %g", e.Type, e.Clock)
		}
		n := d.base / e.Clock
		if n < 1 || n != math.Trunc(n) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"rcc %s: %gMHz is not %gMHz divided by a whole number", e.Type, e.Clock, d.base)
		}
		sel[d.key] = "1/" + strconv.Itoa(int(n))
	}
	return sel, nil
}

// Update rewrites the rcc device of the device file data so its clock
// entries match selections, and returns the new file. Every other device and
// key is preserved, though comments and key order are not. Dividers without
// a selection use their topology default. A ratio that does not divide the
// base clock evenly is an INVALID_INPUT error, since the file stores whole
// MHz.
func Update(data []byte, topo *topology.Topology, selections map[string]string) ([]byte, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse device config")
	}
	devs, _ := doc["dev"].([]map[string]any)
	var rcc map[string]any
	for _, d := range devs {
		if d["dev_name"] == DeviceName {
			rcc = d
			break
		}
	}
	if rcc == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "device config has no %q device", DeviceName)
	}

	defaults := topo.Defaults()
	divs := dividers(topo)
	var entries []map[string]any
	for _, n := range topo.Nodes {
		d, ok := divs[n.RccType]
		if n.Kind != topology.KindDivider || !ok || d.key != n.Key {
			continue
		}
		opt, ok := selections[n.Key]
		if !ok {
			opt = defaults[n.Key]
		}
		div, err := freq.ParseRatio(opt)
		if err != nil {
			return nil, err
		}
		clock := d.base / float64(div)
		if clock != math.Trunc(clock) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"%s %s: %gMHz does not divide evenly by %d", n.Key, opt, d.base, div)
		}
		entries = append(entries, map[string]any{
			"type":  n.RccType,
			"clock": int64(clock),
		})
	}
	ic, _ := rcc["init_cfg"].(map[string]any)
	if ic == nil {
		ic = make(map[string]any)
	}
	ic["init_level"] = "app"
	ic["init_priority"] = 0
	rcc["init_cfg"] = ic
	rcc["rcc_cfg"] = entries

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode device config")
	}
	return buf.Bytes(), nil
}
