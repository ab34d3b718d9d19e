// Package controller owns the diagram lifecycle: it rebuilds the model on
// every resize, re-renders after a divider selection, and keeps exactly one
// selection control per interactive divider alive on a [ControlHost].
//
// All methods serialize on one mutex, so a host may call them from any
// goroutine. A host's change callback calls back into [Controller.Select] and
// therefore must not run while the host is inside CreateControl.
package controller

import (
	"maps"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/layout"
	"github.com/matzehuels/clocktree/pkg/observability"
	"github.com/matzehuels/clocktree/pkg/propagation"
	"github.com/matzehuels/clocktree/pkg/render"
	"github.com/matzehuels/clocktree/pkg/render/sink"
	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// MinScale is the scale used when the container is too small to fit the
// canvas at any positive scale.
const MinScale = 0.05

// FitScale returns the largest scale, at most 1, at which canvas fits in a
// width x height container. degenerate reports that the container had no
// usable area and the scale was clamped to MinScale.
func FitScale(canvas topology.Canvas, width, height float64) (scale float64, degenerate bool) {
	scale = math.Min(math.Min(width/canvas.Width, height/canvas.Height), 1)
	if math.IsNaN(scale) || scale < MinScale {
		return MinScale, true
	}
	return scale, false
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithHooks sets the diagram hooks. The default is observability.Diagram().
func WithHooks(h observability.DiagramHooks) Option { return func(c *Controller) { c.hooks = h } }

// WithSelections seeds the selections re-applied on every rebuild, keyed by
// divider node key.
func WithSelections(sel map[string]string) Option {
	return func(c *Controller) { maps.Copy(c.selections, sel) }
}

// WithLayout overrides the layout options.
func WithLayout(opts layout.Options) Option { return func(c *Controller) { c.layoutOpts = opts } }

// WithRenderer replaces the default renderer.
func WithRenderer(r *render.Renderer) Option { return func(c *Controller) { c.renderer = r } }

// Controller drives one diagram on one surface.
type Controller struct {
	mu sync.Mutex

	topo       *topology.Topology
	surface    render.Surface
	host       ControlHost
	renderer   *render.Renderer
	layoutOpts layout.Options
	prop       *propagation.Propagator
	logger     *log.Logger
	hooks      observability.DiagramHooks

	model         *tree.Model
	width, height float64
	selections    map[string]string
	controls      []Control
	specs         []ControlSpec
}

// New creates a controller for topo. Nothing is built until the first
// [Controller.Resize]. A nil surface discards drawing and a nil host keeps
// controls headless.
func New(topo *topology.Topology, surface render.Surface, host ControlHost, opts ...Option) *Controller {
	if surface == nil {
		surface = sink.NewRecorder()
	}
	if host == nil {
		host = NewHeadlessHost()
	}
	c := &Controller{
		topo:       topo,
		surface:    surface,
		host:       host,
		renderer:   render.New(),
		logger:     log.Default(),
		hooks:      observability.Diagram(),
		selections: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if topo != nil {
		c.prop = propagation.New(topo.Propagation)
	}
	return c
}

// =============================================================================
// Lifecycle
// =============================================================================

// Resize rebuilds the diagram for a width x height container: build, layout,
// re-apply selections, render, then replace every control. If the topology
// cannot be built the previous model, frame and controls remain. If the host
// fails to create a control, none of the new controls is left behind.
func (c *Controller) Resize(width, height float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuild(c.topo, width, height)
}

// Reload swaps the topology and rebuilds at the last container size. On
// failure the previous topology stays in effect.
func (c *Controller) Reload(topo *topology.Topology) error {
	if topo == nil {
		return errors.New(errors.ErrCodeMalformedTopology, "nil topology")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		c.topo = topo
		c.prop = propagation.New(topo.Propagation)
		return nil
	}
	return c.rebuild(topo, c.width, c.height)
}

func (c *Controller) rebuild(topo *topology.Topology, width, height float64) (err error) {
	start := time.Now()
	var nodes int
	var scale float64
	defer func() {
		c.hooks.OnRebuild(nodes, scale, time.Since(start), err)
	}()

	if topo == nil {
		return errors.New(errors.ErrCodeMalformedTopology, "no topology loaded")
	}
	if err := errors.ValidateDimensions(width, height); err != nil {
		return err
	}

	scale, degenerate := FitScale(topo.Canvas, width, height)
	if degenerate {
		c.logger.Warn("container too small, clamping scale", "width", width, "height", height, "scale", scale)
		c.hooks.OnDegenerateContainer(width, height)
	}

	m, err := tree.Build(topo, tree.Frame{Width: width, Height: height, Scale: scale})
	if err != nil {
		c.logger.Error("rebuild failed, keeping previous frame", "err", err)
		return err
	}
	if err := layout.Apply(m, c.layoutOpts); err != nil {
		c.logger.Error("layout failed, keeping previous frame", "err", err)
		return err
	}
	prop := propagation.New(topo.Propagation)
	if err := prop.ApplySelections(m, c.selections); err != nil {
		c.logger.Warn("selection not re-applied", "err", err)
	}

	c.topo, c.prop, c.model = topo, prop, m
	c.width, c.height = width, height
	nodes = len(m.Nodes)
	c.render()

	for _, ctl := range c.controls {
		ctl.Remove()
	}
	c.controls, c.specs = nil, nil
	for _, n := range m.Interactive() {
		spec := specFor(n)
		id := n.ID
		ctl, err := c.host.CreateControl(spec, func(v string) error { return c.Select(id, v) })
		if err != nil {
			for _, made := range c.controls {
				made.Remove()
			}
			c.controls, c.specs = nil, nil
			c.logger.Error("control creation failed, diagram has no controls", "key", n.Key, "err", err)
			return errors.Wrap(errors.ErrCodeInternal, err, "create control for %s", n.Key)
		}
		c.controls = append(c.controls, ctl)
		c.specs = append(c.specs, spec)
	}

	c.logger.Debug("rebuilt diagram", "nodes", nodes, "scale", scale, "controls", len(c.controls), "took", time.Since(start))
	return nil
}

func (c *Controller) render() render.Stats {
	start := time.Now()
	st := c.renderer.Render(c.surface, c.model)
	c.hooks.OnRender(st.Nodes, st.Connections, st.Skipped, st.Badged, time.Since(start))
	if st.Skipped > 0 {
		c.logger.Debug("skipped connections with missing endpoints", "count", st.Skipped)
	}
	return st
}

// =============================================================================
// Selection
// =============================================================================

// Select applies value to the divider with id nodeID, recomputes the affected
// terminal frequencies and re-renders. The selection is kept for later
// rebuilds. Nothing moves and no control is recreated.
func (c *Controller) Select(nodeID, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(nodeID, value)
}

// SelectKey is Select addressed by divider node key, which survives rebuilds.
func (c *Controller) SelectKey(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return errors.New(errors.ErrCodeMissingNode, "divider %q: diagram not built", key)
	}
	n, ok := c.model.ByKey(key)
	if !ok {
		return errors.New(errors.ErrCodeMissingNode, "divider %q", key)
	}
	return c.selectLocked(n.ID, value)
}

func (c *Controller) selectLocked(nodeID, value string) error {
	if c.model == nil {
		return errors.New(errors.ErrCodeMissingNode, "divider %s: diagram not built", nodeID)
	}
	updated, err := c.prop.Propagate(c.model, nodeID, value)
	var key string
	if n, ok := c.model.Node(nodeID); ok {
		key = n.Key
	}
	c.hooks.OnSelect(key, value, len(updated), err)
	if err != nil {
		c.logger.Warn("selection rejected", "divider", key, "value", value, "err", err)
		return err
	}
	c.selections[key] = value
	for i := range c.specs {
		if c.specs[i].NodeID == nodeID {
			c.specs[i].Selected = value
		}
	}
	c.logger.Debug("selection applied", "divider", key, "value", value, "updated", len(updated))
	c.render()
	return nil
}

// =============================================================================
// Accessors
// =============================================================================

// Snapshot returns a deep copy of the current model, or nil before the first
// successful rebuild.
func (c *Controller) Snapshot() *tree.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return nil
	}
	return c.model.Clone()
}

// Inspect calls fn with the live model while holding the controller lock.
// fn must not retain the model or call back into the controller.
func (c *Controller) Inspect(fn func(m *tree.Model)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.model)
}

// Controls returns the specs of the live controls.
func (c *Controller) Controls() []ControlSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ControlSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Selections returns the selections made so far, keyed by divider node key.
func (c *Controller) Selections() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.selections)
}

// Frame returns the frame of the current model.
func (c *Controller) Frame() tree.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return tree.Frame{}
	}
	return c.model.Frame
}

// Scale returns the current scale, or 0 before the first rebuild.
func (c *Controller) Scale() float64 { return c.Frame().Scale }

// Topology returns the topology in effect.
func (c *Controller) Topology() *topology.Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topo
}

// Renderer returns the renderer used for the controller's surface.
func (c *Controller) Renderer() *render.Renderer { return c.renderer }
