package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/controller"
	"github.com/matzehuels/clocktree/pkg/errors"
)

// Terminal cells are mapped to a pixel container of this size per cell.
const (
	cellWidth  = 8
	cellHeight = 16
)

// Control styles
var (
	controlFocusedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	controlNormalStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	controlLabelStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	statusErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// tuiCommand opens the interactive terminal view.
func (c *CLI) tuiCommand() *cobra.Command {
	var flags diagramFlags

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Explore divider settings interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context(), newPrinter(cmd.OutOrStdout()), &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runTUI(ctx context.Context, out *printer, flags *diagramFlags) error {
	topo, selections, err := flags.load()
	if err != nil {
		return err
	}

	host := newTUIHost()
	// The alternate screen owns the terminal; log output would tear it.
	ctrl := controller.New(topo, nil, host, controller.WithLogger(log.New(io.Discard)))
	if err := ctrl.Resize(topo.Canvas.Width, topo.Canvas.Height); err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(selections)) {
		if err := ctrl.SelectKey(k, selections[k]); err != nil {
			return err
		}
	}

	p := tea.NewProgram(NewDiagramModel(ctrl, host), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(DiagramModel); ok {
		out.selections(m.ctrl.Selections())
	}
	return nil
}

// =============================================================================
// tuiHost - terminal control host
// =============================================================================

// tuiHost keeps the live controls in creation order; the model draws them as
// a list and fires their change callbacks on left/right.
type tuiHost struct {
	mu   sync.Mutex
	seq  int
	live []*tuiControl
}

type tuiControl struct {
	host     *tuiHost
	seq      int
	spec     controller.ControlSpec
	onChange controller.ChangeFunc
}

func newTUIHost() *tuiHost { return &tuiHost{} }

func (h *tuiHost) CreateControl(spec controller.ControlSpec, onChange controller.ChangeFunc) (controller.Control, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	c := &tuiControl{host: h, seq: h.seq, spec: spec, onChange: onChange}
	h.live = append(h.live, c)
	return c, nil
}

func (c *tuiControl) Remove() {
	h := c.host
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = slices.DeleteFunc(h.live, func(o *tuiControl) bool { return o.seq == c.seq })
}

func (h *tuiHost) controls() []*tuiControl {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.live)
}

var _ controller.ControlHost = (*tuiHost)(nil)

// =============================================================================
// DiagramModel - interactive divider selection
// =============================================================================

type diagramKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func (k diagramKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Right, k.Help, k.Quit}
}

func (k diagramKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Left, k.Right}, {k.Help, k.Quit}}
}

var diagramKeys = diagramKeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k", "shift+tab"), key.WithHelp("↑", "previous divider")),
	Down:  key.NewBinding(key.WithKeys("down", "j", "tab"), key.WithHelp("↓", "next divider")),
	Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous ratio")),
	Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next ratio")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// DiagramModel is the bubbletea model for the terminal host. Window size
// changes resize the diagram; left/right steps the focused divider.
type DiagramModel struct {
	ctrl  *controller.Controller
	host  *tuiHost
	keys  diagramKeyMap
	help  help.Model
	focus string // key of the focused control
	err   error
}

// NewDiagramModel creates a model over a built controller whose host is host.
func NewDiagramModel(ctrl *controller.Controller, host *tuiHost) DiagramModel {
	m := DiagramModel{ctrl: ctrl, host: host, keys: diagramKeys, help: help.New()}
	if cs := host.controls(); len(cs) > 0 {
		m.focus = cs[0].spec.Key
	}
	return m
}

func (m DiagramModel) Init() tea.Cmd {
	return nil
}

func (m DiagramModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.err = m.ctrl.Resize(float64(msg.Width*cellWidth), float64(msg.Height*cellHeight))
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			m.moveFocus(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveFocus(1)
		case key.Matches(msg, m.keys.Left):
			m.err = m.step(-1)
		case key.Matches(msg, m.keys.Right):
			m.err = m.step(1)
		}
	}
	return m, nil
}

func (m *DiagramModel) focused() (int, []*tuiControl) {
	cs := m.host.controls()
	for i, c := range cs {
		if c.spec.Key == m.focus {
			return i, cs
		}
	}
	return -1, cs
}

func (m *DiagramModel) moveFocus(delta int) {
	i, cs := m.focused()
	if len(cs) == 0 {
		return
	}
	i = (i + delta + len(cs)) % len(cs)
	m.focus = cs[i].spec.Key
}

// step fires the focused control's change callback with the neighbouring
// option.
func (m *DiagramModel) step(delta int) error {
	i, cs := m.focused()
	if i < 0 {
		return nil
	}
	c := cs[i]
	opts := c.spec.Options
	if len(opts) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "divider %s has no options", c.spec.Key)
	}
	cur := slices.Index(opts, m.ctrl.Selections()[c.spec.Key])
	if cur < 0 {
		cur = slices.Index(opts, c.spec.Selected)
	}
	next := min(max(cur+delta, 0), len(opts)-1)
	if next == cur {
		return nil
	}
	return c.onChange(opts[next])
}

func (m DiagramModel) View() string {
	var b strings.Builder

	snap := m.ctrl.Snapshot()
	if snap == nil {
		return "building diagram..."
	}
	b.WriteString(StyleTitle.Render(snap.Name))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  scale %.2f", snap.Frame.Scale)))
	b.WriteString("\n\n")

	selections := m.ctrl.Selections()
	for _, c := range m.host.controls() {
		label := c.spec.ChangeLabel
		if label == "" {
			label = c.spec.Key
		}
		value := selections[c.spec.Key]
		if value == "" {
			value = c.spec.Selected
		}
		line := controlLabelStyle.Render(label) + " ‹ " + value + " ›"
		if c.spec.Key == m.focus {
			b.WriteString(controlFocusedStyle.Render("▸ " + line))
		} else {
			b.WriteString(controlNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(terminalTable(snap).Render())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(statusErrorStyle.Render(errors.UserMessage(m.err)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
