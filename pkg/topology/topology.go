package topology

// Kind classifies a node in the clock tree.
type Kind string

// Node kinds.
const (
	KindRoot     Kind = "root"
	KindDivider  Kind = "divider"
	KindJunction Kind = "junction"
	KindTerminal Kind = "terminal"
)

// Kinds lists every valid node kind, root first.
var Kinds = []Kind{KindRoot, KindDivider, KindJunction, KindTerminal}

// Topology is the static description a diagram is built from.
type Topology struct {
	Name        string      `toml:"name" yaml:"name" json:"name"`
	Canvas      Canvas      `toml:"canvas" yaml:"canvas" json:"canvas"`
	Columns     Columns     `toml:"columns" yaml:"columns" json:"columns"`
	Sizes       Sizes       `toml:"sizes" yaml:"sizes" json:"sizes"`
	Nodes       []NodeSpec  `toml:"nodes" yaml:"nodes" json:"nodes"`
	Propagation []Rule      `toml:"propagation" yaml:"propagation" json:"propagation"`
	Layout      LayoutHints `toml:"layout" yaml:"layout" json:"layout"`
	Render      RenderHints `toml:"render" yaml:"render" json:"render"`
}

// Canvas is the logical drawing area, in unscaled units.
type Canvas struct {
	Width         float64 `toml:"width" yaml:"width" json:"width"`
	Height        float64 `toml:"height" yaml:"height" json:"height"`
	OriginY       float64 `toml:"origin_y" yaml:"origin_y" json:"origin_y"`
	TerminalPitch float64 `toml:"terminal_pitch" yaml:"terminal_pitch" json:"terminal_pitch"`
	Nudge         float64 `toml:"nudge" yaml:"nudge" json:"nudge"`
}

// Columns holds the default x column of each node kind, in unscaled units.
type Columns struct {
	Root     float64 `toml:"root" yaml:"root" json:"root"`
	Divider  float64 `toml:"divider" yaml:"divider" json:"divider"`
	Junction float64 `toml:"junction" yaml:"junction" json:"junction"`
	Terminal float64 `toml:"terminal" yaml:"terminal" json:"terminal"`
}

// For returns the default column for kind.
func (c Columns) For(kind Kind) float64 {
	switch kind {
	case KindRoot:
		return c.Root
	case KindDivider:
		return c.Divider
	case KindJunction:
		return c.Junction
	default:
		return c.Terminal
	}
}

// Size is a box size in unscaled units.
type Size struct {
	Width  float64 `toml:"width" yaml:"width" json:"width"`
	Height float64 `toml:"height" yaml:"height" json:"height"`
}

// Sizes holds the default box size of each node kind.
type Sizes struct {
	Root     Size `toml:"root" yaml:"root" json:"root"`
	Divider  Size `toml:"divider" yaml:"divider" json:"divider"`
	Junction Size `toml:"junction" yaml:"junction" json:"junction"`
	Terminal Size `toml:"terminal" yaml:"terminal" json:"terminal"`
}

// For returns the default size for kind.
func (s Sizes) For(kind Kind) Size {
	switch kind {
	case KindRoot:
		return s.Root
	case KindDivider:
		return s.Divider
	case KindJunction:
		return s.Junction
	default:
		return s.Terminal
	}
}

// NodeSpec declares one node. Parent is empty only for the root.
//
// A divider with a non-empty Options list is interactive: hosts render it as a
// live selection control and the renderer skips its box. Column and Width
// override the per-kind defaults when set.
type NodeSpec struct {
	Key         string   `toml:"key" yaml:"key" json:"key"`
	Label       string   `toml:"label" yaml:"label" json:"label"`
	Kind        Kind     `toml:"kind" yaml:"kind" json:"kind"`
	Parent      string   `toml:"parent" yaml:"parent" json:"parent,omitempty"`
	Column      *float64 `toml:"column" yaml:"column" json:"column,omitempty"`
	Width       *float64 `toml:"width" yaml:"width" json:"width,omitempty"`
	Freq        string   `toml:"freq" yaml:"freq" json:"freq,omitempty"`
	Special     bool     `toml:"special" yaml:"special" json:"special,omitempty"`
	Options     []string `toml:"options" yaml:"options" json:"options,omitempty"`
	Default     string   `toml:"default" yaml:"default" json:"default,omitempty"`
	Name        string   `toml:"name" yaml:"name" json:"name,omitempty"`
	ChangeLabel string   `toml:"change_label" yaml:"change_label" json:"change_label,omitempty"`
	RccType     string   `toml:"rcc_type" yaml:"rcc_type" json:"rcc_type,omitempty"`
}

// Interactive reports whether the node is rendered as a selection control.
func (n NodeSpec) Interactive() bool {
	return n.Kind == KindDivider && len(n.Options) > 0
}

// Rule maps a divider to the terminals its selection recomputes.
//
// Direct terminals receive floor(BaseMHz/N) MHz. Each indirect group divides
// that value once more by its Factor without flooring.
type Rule struct {
	Divider  string          `toml:"divider" yaml:"divider" json:"divider"`
	BaseMHz  float64         `toml:"base_mhz" yaml:"base_mhz" json:"base_mhz"`
	Direct   []string        `toml:"direct" yaml:"direct" json:"direct,omitempty"`
	Indirect []IndirectGroup `toml:"indirect" yaml:"indirect" json:"indirect,omitempty"`
}

// IndirectGroup is a set of terminals behind a fixed secondary divider.
type IndirectGroup struct {
	Factor    float64  `toml:"factor" yaml:"factor" json:"factor"`
	Terminals []string `toml:"terminals" yaml:"terminals" json:"terminals"`
}

// LayoutHints name the nodes that get special vertical treatment.
type LayoutHints struct {
	// OffsetCentroid is the subtree root whose box is pulled upward after the
	// midpoint pass.
	OffsetCentroid string `toml:"offset_centroid" yaml:"offset_centroid" json:"offset_centroid,omitempty"`
	// OffsetDivisor overrides the divisor used for OffsetCentroid. Zero means default.
	OffsetDivisor float64    `toml:"offset_divisor" yaml:"offset_divisor" json:"offset_divisor,omitempty"`
	Align         *Alignment `toml:"align" yaml:"align" json:"align,omitempty"`
}

// Alignment forces Node's y to equal Target's y after layout.
type Alignment struct {
	Node   string `toml:"node" yaml:"node" json:"node"`
	Target string `toml:"target" yaml:"target" json:"target"`
}

// RenderHints configure topology specific drawing details.
type RenderHints struct {
	// LeadIn is the fan-out parent routed with a fixed-length lead-in segment.
	LeadIn string `toml:"lead_in" yaml:"lead_in" json:"lead_in,omitempty"`
	// HighlightBelow is the frequency under which the special terminal is badged.
	HighlightBelow float64 `toml:"highlight_below" yaml:"highlight_below" json:"highlight_below,omitempty"`
}

// Root returns the spec of the root node, or false if there is none.
func (t *Topology) Root() (NodeSpec, bool) {
	for _, n := range t.Nodes {
		if n.Kind == KindRoot {
			return n, true
		}
	}
	return NodeSpec{}, false
}

// Lookup returns the node spec with the given key.
func (t *Topology) Lookup(key string) (NodeSpec, bool) {
	for _, n := range t.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return NodeSpec{}, false
}

// Defaults returns the default option of every interactive divider, keyed by node key.
func (t *Topology) Defaults() map[string]string {
	out := make(map[string]string)
	for _, n := range t.Nodes {
		if n.Interactive() && n.Default != "" {
			out[n.Key] = n.Default
		}
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Topology) Clone() *Topology {
	c := *t
	c.Nodes = make([]NodeSpec, len(t.Nodes))
	for i, n := range t.Nodes {
		n.Options = append([]string(nil), n.Options...)
		if n.Column != nil {
			v := *n.Column
			n.Column = &v
		}
		if n.Width != nil {
			v := *n.Width
			n.Width = &v
		}
		c.Nodes[i] = n
	}
	c.Propagation = make([]Rule, len(t.Propagation))
	for i, r := range t.Propagation {
		r.Direct = append([]string(nil), r.Direct...)
		groups := make([]IndirectGroup, len(r.Indirect))
		for j, g := range r.Indirect {
			g.Terminals = append([]string(nil), g.Terminals...)
			groups[j] = g
		}
		r.Indirect = groups
		c.Propagation[i] = r
	}
	if t.Layout.Align != nil {
		a := *t.Layout.Align
		c.Layout.Align = &a
	}
	return &c
}
