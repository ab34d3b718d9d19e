// Package layout assigns vertical positions to a built clock tree.
//
// Horizontal positions are fixed per column by the tree builder; this package
// only moves boxes up and down. The main pass is a post-order centroid
// placement: leaves keep their y, and every parent is centred on the midpoint
// of its outermost children,
//
//	centre = (min(childCentres) + max(childCentres)) / 2
//	y      = centre - h/2
//
// Two topology driven adjustments follow the main pass: an offset centroid for
// one subtree root (see [OffsetCentroid]) and a one-off alignment of a node to
// a terminal (see [AlignToTarget]).
package layout

import (
	"math"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// DefaultOffsetDivisor divides the box height in the offset centroid policy.
// It is a visual tuning value with no derivation; override it per topology
// (layout.offset_divisor) or per call ([Options.OffsetDivisor]).
const DefaultOffsetDivisor = 1.54

// Options configure [Apply].
type Options struct {
	// OffsetDivisor overrides the topology's offset divisor when non-zero.
	OffsetDivisor float64
}

// Centre returns the vertical centre of n.
func Centre(n *tree.Node) float64 {
	return n.Y + n.H/2
}

// Apply runs the midpoint pass from the root, then the offset centroid and
// alignment steps named by the model's layout hints.
func Apply(m *tree.Model, opts Options) error {
	root := m.Root()
	if root == nil {
		return errors.New(errors.ErrCodeMalformedTopology, "model has no root")
	}
	Midpoint(m, root)

	hints := m.Layout
	if hints.OffsetCentroid != "" {
		n, ok := m.ByKey(hints.OffsetCentroid)
		if !ok {
			return errors.New(errors.ErrCodeMissingNode, "offset centroid node %q", hints.OffsetCentroid)
		}
		div := opts.OffsetDivisor
		if div == 0 {
			div = hints.OffsetDivisor
		}
		if div == 0 {
			div = DefaultOffsetDivisor
		}
		OffsetCentroid(m, n, div)
	}
	if a := hints.Align; a != nil {
		if err := AlignToTarget(m, a.Node, a.Target); err != nil {
			return err
		}
	}
	return nil
}

// Midpoint centres n and all of its descendants on their children and
// returns n's resulting centre.
func Midpoint(m *tree.Model, n *tree.Node) float64 {
	return place(m, n, make(map[string]bool), 2)
}

// OffsetCentroid recomputes n's descendants with the midpoint policy, then
// places n itself at centre - h/divisor. A divisor below 2 lifts the box
// above its true centre, and one above 2 lowers it.
func OffsetCentroid(m *tree.Model, n *tree.Node, divisor float64) float64 {
	return place(m, n, make(map[string]bool), divisor)
}

// place is the recursive step shared by both policies. Only n uses divisor;
// its descendants always use the midpoint. A node already on the current path
// or already placed returns its current centre.
func place(m *tree.Model, n *tree.Node, visited map[string]bool, divisor float64) float64 {
	if visited[n.ID] {
		return Centre(n)
	}
	visited[n.ID] = true

	children := m.Children(n.ID)
	if len(children) == 0 {
		return Centre(n)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range children {
		cc := place(m, c, visited, 2)
		lo = math.Min(lo, cc)
		hi = math.Max(hi, cc)
	}
	centre := (lo + hi) / 2
	n.Y = centre - n.H/divisor
	return Centre(n)
}

// AlignToTarget sets the y of the node keyed nodeKey to the y of the node
// keyed targetKey. It runs after the centroid passes and overrides them.
func AlignToTarget(m *tree.Model, nodeKey, targetKey string) error {
	n, ok := m.ByKey(nodeKey)
	if !ok {
		return errors.New(errors.ErrCodeMissingNode, "align node %q", nodeKey)
	}
	target, ok := m.ByKey(targetKey)
	if !ok {
		return errors.New(errors.ErrCodeMissingNode, "align target %q", targetKey)
	}
	n.Y = target.Y
	return nil
}
