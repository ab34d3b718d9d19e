package topology

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/matzehuels/clocktree/pkg/errors"
)

var nodeKey = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return errors.ValidateNodeKey(s)
})

// Validate checks field level constraints. It does not check that parent
// links form a tree; the tree builder reports that as a malformed topology.
func (t *Topology) Validate() error {
	if err := validation.ValidateStruct(t,
		validation.Field(&t.Canvas),
		validation.Field(&t.Sizes),
		validation.Field(&t.Nodes, validation.Required),
		validation.Field(&t.Propagation),
		validation.Field(&t.Render),
	); err != nil {
		return err
	}
	return t.validateReferences()
}

// Validate validates the canvas.
func (c Canvas) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Width, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Height, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.TerminalPitch, validation.Min(0.0)),
	)
}

// Validate validates the per-kind sizes.
func (s Sizes) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Root),
		validation.Field(&s.Divider),
		validation.Field(&s.Junction),
		validation.Field(&s.Terminal),
	)
}

// Validate validates a box size.
func (s Size) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Width, validation.Min(0.0)),
		validation.Field(&s.Height, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// Validate validates a single node spec.
func (n NodeSpec) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Key, validation.Required, nodeKey),
		validation.Field(&n.Kind, validation.Required, validation.In(KindRoot, KindDivider, KindJunction, KindTerminal)),
		validation.Field(&n.Parent, nodeKey),
		validation.Field(&n.Width, validation.Min(0.0)),
		validation.Field(&n.Options, validation.Each(validation.Required)),
		validation.Field(&n.Default, validation.When(len(n.Options) > 0, validation.Required, validation.In(toAny(n.Options)...))),
	)
}

// Validate validates a propagation rule.
func (r Rule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Divider, validation.Required, nodeKey),
		validation.Field(&r.BaseMHz, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Direct, validation.Each(nodeKey)),
		validation.Field(&r.Indirect),
	)
}

// Validate validates an indirect group.
func (g IndirectGroup) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Factor, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&g.Terminals, validation.Required, validation.Each(nodeKey)),
	)
}

// Validate validates the render hints.
func (r RenderHints) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LeadIn, nodeKey),
		validation.Field(&r.HighlightBelow, validation.Min(0.0)),
	)
}

// validateReferences checks that keys are unique and that every key named by
// rules and hints exists with the expected kind.
func (t *Topology) validateReferences() error {
	kinds := make(map[string]Kind, len(t.Nodes))
	for _, n := range t.Nodes {
		if _, dup := kinds[n.Key]; dup {
			return fmt.Errorf("duplicate node key %q", n.Key)
		}
		kinds[n.Key] = n.Kind
	}
	expect := func(key string, want ...Kind) error {
		got, ok := kinds[key]
		if !ok {
			return fmt.Errorf("unknown node %q", key)
		}
		for _, k := range want {
			if got == k {
				return nil
			}
		}
		return fmt.Errorf("node %q is a %s, want %v", key, got, want)
	}
	for _, r := range t.Propagation {
		if err := expect(r.Divider, KindDivider); err != nil {
			return fmt.Errorf("propagation: %w", err)
		}
		for _, k := range r.Direct {
			if err := expect(k, KindTerminal); err != nil {
				return fmt.Errorf("propagation %s: %w", r.Divider, err)
			}
		}
		for _, g := range r.Indirect {
			for _, k := range g.Terminals {
				if err := expect(k, KindTerminal); err != nil {
					return fmt.Errorf("propagation %s: %w", r.Divider, err)
				}
			}
		}
	}
	if k := t.Layout.OffsetCentroid; k != "" {
		if err := expect(k, KindRoot, KindDivider, KindJunction); err != nil {
			return fmt.Errorf("layout.offset_centroid: %w", err)
		}
	}
	if a := t.Layout.Align; a != nil {
		if err := expect(a.Node, KindDivider, KindJunction); err != nil {
			return fmt.Errorf("layout.align.node: %w", err)
		}
		if err := expect(a.Target, KindTerminal); err != nil {
			return fmt.Errorf("layout.align.target: %w", err)
		}
	}
	if k := t.Render.LeadIn; k != "" {
		if _, ok := kinds[k]; !ok {
			return fmt.Errorf("render.lead_in: unknown node %q", k)
		}
	}
	return nil
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
