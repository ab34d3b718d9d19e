package tree

import (
	"github.com/google/uuid"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/freq"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// Build creates the node and connection set of topo for frame.
//
// Column and size come from the node kind unless the node overrides them, and
// are multiplied by frame.Scale. The drawing is centred in the frame:
//
//	x = (frame.Width  - canvas.Width*scale)/2  + column*scale
//	y = (frame.Height - canvas.Height*scale)/2 + origin_y*scale
//
// Terminals are then offset by their index times the terminal pitch, centred
// on the origin row, and every node is nudged up by canvas.Nudge*scale.
// Interactive dividers start with their default option selected.
func Build(topo *topology.Topology, frame Frame) (*Model, error) {
	if topo == nil {
		return nil, errors.New(errors.ErrCodeMalformedTopology, "nil topology")
	}
	if err := checkTree(topo); err != nil {
		return nil, err
	}

	s := frame.Scale
	c := topo.Canvas
	startX := (frame.Width - c.Width*s) / 2
	startY := (frame.Height-c.Height*s)/2 + c.OriginY*s

	var terminals int
	for _, spec := range topo.Nodes {
		if spec.Kind == topology.KindTerminal {
			terminals++
		}
	}
	firstOffset := -c.TerminalPitch * float64(terminals-1) / 2

	m := &Model{
		Name:   topo.Name,
		Frame:  frame,
		Layout: topo.Layout,
		Render: topo.Render,
		Rules:  topo.Propagation,
		Nodes:  make([]*Node, 0, len(topo.Nodes)),
	}
	ids := make(map[string]string, len(topo.Nodes))
	for _, spec := range topo.Nodes {
		ids[spec.Key] = uuid.NewString()
	}

	var ti int
	for _, spec := range topo.Nodes {
		column := topo.Columns.For(spec.Kind)
		if spec.Column != nil {
			column = *spec.Column
		}
		size := topo.Sizes.For(spec.Kind)
		if spec.Width != nil {
			size.Width = *spec.Width
		}

		y := startY
		if spec.Kind == topology.KindTerminal {
			y = startY + (firstOffset+float64(ti)*c.TerminalPitch)*s
			ti++
		}

		n := &Node{
			ID:          ids[spec.Key],
			Key:         spec.Key,
			Label:       spec.Label,
			Kind:        spec.Kind,
			X:           startX + column*s,
			Y:           y - c.Nudge*s,
			W:           size.Width * s,
			H:           size.Height * s,
			Special:     spec.Special,
			Interactive: spec.Interactive(),
			Name:        spec.Name,
			ChangeLabel: spec.ChangeLabel,
			RccType:     spec.RccType,
		}
		if spec.Parent != "" {
			n.ParentID = ids[spec.Parent]
		} else {
			m.RootID = n.ID
		}
		if spec.Freq != "" {
			f, err := freq.Parse(spec.Freq)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeMalformedTopology, err, "node %q", spec.Key)
			}
			n.Freq = &f
		}
		if n.Interactive {
			n.Options = append([]string(nil), spec.Options...)
			n.Selected = spec.Default
		}
		m.Nodes = append(m.Nodes, n)
	}

	for _, n := range m.Nodes {
		if n.ParentID != "" {
			m.Connections = append(m.Connections, Connection{From: n.ParentID, To: n.ID})
		}
	}
	m.reindex()
	return m, nil
}

// checkTree verifies that topo has exactly one root, that every other node
// names an existing parent, and that following parents always reaches the root.
func checkTree(topo *topology.Topology) error {
	specs := make(map[string]topology.NodeSpec, len(topo.Nodes))
	var root string
	for _, spec := range topo.Nodes {
		if _, dup := specs[spec.Key]; dup {
			return errors.New(errors.ErrCodeMalformedTopology, "duplicate node %q", spec.Key)
		}
		specs[spec.Key] = spec
		if spec.Kind == topology.KindRoot {
			if root != "" {
				return errors.New(errors.ErrCodeMalformedTopology, "more than one root: %q and %q", root, spec.Key)
			}
			root = spec.Key
		}
	}
	if root == "" {
		return errors.New(errors.ErrCodeMalformedTopology, "topology has no root node")
	}

	for _, spec := range topo.Nodes {
		switch {
		case spec.Kind == topology.KindRoot && spec.Parent != "":
			return errors.New(errors.ErrCodeMalformedTopology, "root %q must not have a parent", spec.Key)
		case spec.Kind != topology.KindRoot && spec.Parent == "":
			return errors.New(errors.ErrCodeMalformedTopology, "node %q has no parent", spec.Key)
		}
		if spec.Parent == "" {
			continue
		}
		if _, ok := specs[spec.Parent]; !ok {
			return errors.New(errors.ErrCodeMalformedTopology, "node %q references unknown parent %q", spec.Key, spec.Parent)
		}
	}

	// Every chain must reach the root within len(nodes) steps.
	for _, spec := range topo.Nodes {
		key := spec.Key
		for steps := 0; key != root; steps++ {
			if steps > len(specs) {
				return errors.New(errors.ErrCodeMalformedTopology, "node %q is part of a parent cycle", spec.Key)
			}
			key = specs[key].Parent
		}
	}
	return nil
}
