package controller

import (
	"slices"
	"sync"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// ControlSpec describes one selection control: where the host puts it, what
// it offers and what is currently selected.
type ControlSpec struct {
	NodeID      string   `json:"node_id"`
	Key         string   `json:"key"`
	Name        string   `json:"name,omitempty"`
	ChangeLabel string   `json:"change_label,omitempty"`
	Options     []string `json:"options"`
	Selected    string   `json:"selected"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	W           float64  `json:"w"`
	H           float64  `json:"h"`
}

func specFor(n *tree.Node) ControlSpec {
	return ControlSpec{
		NodeID:      n.ID,
		Key:         n.Key,
		Name:        n.Name,
		ChangeLabel: n.ChangeLabel,
		Options:     slices.Clone(n.Options),
		Selected:    n.Selected,
		X:           n.X,
		Y:           n.Y,
		W:           n.W,
		H:           n.H,
	}
}

// ChangeFunc is called by a host when the user picks a value on a control.
// It must not be called from inside CreateControl.
type ChangeFunc func(value string) error

// Control is a live control created by a host.
type Control interface {
	Remove()
}

// ControlHost creates selection controls bound to a screen rectangle.
type ControlHost interface {
	CreateControl(spec ControlSpec, onChange ChangeFunc) (Control, error)
}

// HeadlessHost is a [ControlHost] without a UI. It keeps the live controls so
// tests, exports and scripted hosts can inspect them and fire changes.
type HeadlessHost struct {
	mu      sync.Mutex
	seq     int
	created int
	live    []*headlessControl
}

type headlessControl struct {
	host     *HeadlessHost
	seq      int
	spec     ControlSpec
	onChange ChangeFunc
}

// NewHeadlessHost returns a host with no controls.
func NewHeadlessHost() *HeadlessHost { return &HeadlessHost{} }

// CreateControl implements [ControlHost].
func (h *HeadlessHost) CreateControl(spec ControlSpec, onChange ChangeFunc) (Control, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.created++
	c := &headlessControl{host: h, seq: h.seq, spec: spec, onChange: onChange}
	h.live = append(h.live, c)
	return c, nil
}

// Remove implements [Control].
func (c *headlessControl) Remove() {
	h := c.host
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = slices.DeleteFunc(h.live, func(o *headlessControl) bool { return o.seq == c.seq })
}

// Live returns the specs of the controls that have not been removed, in
// creation order.
func (h *HeadlessHost) Live() []ControlSpec {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ControlSpec, len(h.live))
	for i, c := range h.live {
		out[i] = c.spec
	}
	return out
}

// Created returns how many controls were ever created.
func (h *HeadlessHost) Created() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.created
}

// Fire simulates the user picking value on the live control for key.
func (h *HeadlessHost) Fire(key, value string) error {
	h.mu.Lock()
	var target *headlessControl
	for _, c := range h.live {
		if c.spec.Key == key {
			target = c
		}
	}
	h.mu.Unlock()
	if target == nil {
		return errors.New(errors.ErrCodeNotFound, "no live control for %q", key)
	}
	return target.onChange(value)
}

var _ ControlHost = (*HeadlessHost)(nil)
