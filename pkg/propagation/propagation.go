// Package propagation recomputes terminal frequencies when a divider
// selection changes.
//
// Which terminals a divider affects is declared in the topology as a
// [topology.Rule]: a base frequency, a set of direct terminals, and groups of
// indirect terminals behind a fixed secondary factor. No other terminal is
// ever touched, and propagation never moves a node.
package propagation

import (
	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/freq"
	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// Propagator applies divider selections to a model.
type Propagator struct {
	rules map[string]topology.Rule
}

// New creates a propagator for the given rules, keyed by divider node key.
func New(rules []topology.Rule) *Propagator {
	p := &Propagator{rules: make(map[string]topology.Rule, len(rules))}
	for _, r := range rules {
		p.rules[r.Divider] = r
	}
	return p
}

// Propagate selects option on the divider with id dividerID and recomputes
// the terminals its rule names. It returns the updated terminals in rule order.
//
// A malformed option is a MALFORMED_RATIO error and leaves the model
// untouched, including the divider's selection. An option need not be one of
// the divider's listed options. A fixed divider, one without a control,
// rejects every selection with INVALID_INPUT. Dividers without a rule only
// record the selection.
func (p *Propagator) Propagate(m *tree.Model, dividerID, option string) ([]*tree.Node, error) {
	div, ok := m.Node(dividerID)
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingNode, "divider %s", dividerID)
	}
	if div.Kind != topology.KindDivider {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node %q is a %s, not a divider", div.Key, div.Kind)
	}
	if !div.Interactive {
		return nil, errors.New(errors.ErrCodeInvalidInput, "divider %q is fixed at %s", div.Key, div.Label)
	}
	n, err := freq.ParseRatio(option)
	if err != nil {
		return nil, err
	}

	div.Selected = option
	rule, ok := p.rules[div.Key]
	if !ok {
		return nil, nil
	}

	primary := freq.Divide(rule.BaseMHz, n)
	var updated []*tree.Node
	set := func(key string, f freq.Frequency) {
		t, ok := m.ByKey(key)
		if !ok {
			return
		}
		t.Freq = &f
		updated = append(updated, t)
	}
	for _, key := range rule.Direct {
		set(key, freq.Frequency{Value: primary, Unit: freq.MHz})
	}
	for _, g := range rule.Indirect {
		f := freq.Derive(primary, g.Factor)
		for _, key := range g.Terminals {
			set(key, f)
		}
	}
	return updated, nil
}

// ApplySelections re-applies a set of selections, keyed by divider node key,
// to a freshly built model. Unknown keys and malformed options are skipped;
// the first error is returned after every selection has been tried.
func (p *Propagator) ApplySelections(m *tree.Model, selections map[string]string) error {
	var first error
	for _, div := range m.Dividers() {
		option, ok := selections[div.Key]
		if !ok {
			continue
		}
		if _, err := p.Propagate(m, div.ID, option); err != nil && first == nil {
			first = err
		}
	}
	return first
}
