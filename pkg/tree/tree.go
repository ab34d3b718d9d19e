package tree

import (
	"github.com/matzehuels/clocktree/pkg/freq"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// Frame is the host container a model is built for.
type Frame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// Node is a positioned diagram node. X and Y are the top-left corner of its box.
type Node struct {
	ID       string        `json:"id"`
	Key      string        `json:"key"`
	Label    string        `json:"label"`
	Kind     topology.Kind `json:"kind"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	W        float64       `json:"w"`
	H        float64       `json:"h"`
	ParentID string        `json:"parent_id,omitempty"`

	Freq    *freq.Frequency `json:"freq,omitempty"`
	Special bool            `json:"special,omitempty"`

	// Interactive nodes are drawn by the host as selection controls.
	Interactive bool     `json:"interactive,omitempty"`
	Options     []string `json:"options,omitempty"`
	Selected    string   `json:"selected,omitempty"`
	Name        string   `json:"name,omitempty"`
	ChangeLabel string   `json:"change_label,omitempty"`
	RccType     string   `json:"rcc_type,omitempty"`
}

// Centre returns the vertical centre of the node's box.
func (n *Node) Centre() float64 { return n.Y + n.H/2 }

// Right returns the x coordinate of the node's right edge.
func (n *Node) Right() float64 { return n.X + n.W }

// Placeholder reports whether the node has no label and is never drawn as a box.
func (n *Node) Placeholder() bool { return n.Label == "" }

// Connection links a parent node to one of its children.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Model is the node and connection set for one frame.
type Model struct {
	Name        string               `json:"name"`
	Frame       Frame                `json:"frame"`
	Nodes       []*Node              `json:"nodes"`
	Connections []Connection         `json:"connections"`
	RootID      string               `json:"root_id"`
	Layout      topology.LayoutHints `json:"-"`
	Render      topology.RenderHints `json:"-"`
	Rules       []topology.Rule      `json:"-"`

	byID     map[string]*Node
	byKey    map[string]*Node
	children map[string][]*Node
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (*Node, bool) {
	n, ok := m.byID[id]
	return n, ok
}

// ByKey returns the node built from the topology key.
func (m *Model) ByKey(key string) (*Node, bool) {
	n, ok := m.byKey[key]
	return n, ok
}

// Root returns the root node, or nil for an empty model.
func (m *Model) Root() *Node {
	return m.byID[m.RootID]
}

// Children returns the children of id in topology order.
func (m *Model) Children(id string) []*Node {
	return m.children[id]
}

// Terminals returns every terminal node in topology order.
func (m *Model) Terminals() []*Node {
	return m.filter(func(n *Node) bool { return n.Kind == topology.KindTerminal })
}

// Dividers returns every divider node, interactive or not.
func (m *Model) Dividers() []*Node {
	return m.filter(func(n *Node) bool { return n.Kind == topology.KindDivider })
}

// Interactive returns the nodes hosts render as selection controls.
func (m *Model) Interactive() []*Node {
	return m.filter(func(n *Node) bool { return n.Interactive })
}

// Selections returns the selected option of every interactive node, keyed by node key.
func (m *Model) Selections() map[string]string {
	out := make(map[string]string)
	for _, n := range m.Interactive() {
		out[n.Key] = n.Selected
	}
	return out
}

func (m *Model) filter(keep func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range m.Nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with m.
func (m *Model) Clone() *Model {
	c := &Model{
		Name:        m.Name,
		Frame:       m.Frame,
		RootID:      m.RootID,
		Layout:      m.Layout,
		Render:      m.Render,
		Rules:       m.Rules,
		Nodes:       make([]*Node, len(m.Nodes)),
		Connections: append([]Connection(nil), m.Connections...),
	}
	for i, n := range m.Nodes {
		cp := *n
		cp.Options = append([]string(nil), n.Options...)
		if n.Freq != nil {
			f := *n.Freq
			cp.Freq = &f
		}
		c.Nodes[i] = &cp
	}
	c.reindex()
	return c
}

// reindex rebuilds the lookup maps from Nodes.
func (m *Model) reindex() {
	m.byID = make(map[string]*Node, len(m.Nodes))
	m.byKey = make(map[string]*Node, len(m.Nodes))
	m.children = make(map[string][]*Node)
	for _, n := range m.Nodes {
		m.byID[n.ID] = n
		m.byKey[n.Key] = n
	}
	for _, n := range m.Nodes {
		if n.ParentID != "" {
			m.children[n.ParentID] = append(m.children[n.ParentID], n)
		}
	}
}
