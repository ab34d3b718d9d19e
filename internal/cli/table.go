package cli

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/controller"
	"github.com/matzehuels/clocktree/pkg/render"
	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

var (
	styleTableHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableSpecial = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleTableDim     = lipgloss.NewStyle().Foreground(colorDim)
)

// tableCommand prints the terminal frequencies for a set of selections.
func (c *CLI) tableCommand() *cobra.Command {
	var flags diagramFlags

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print terminal frequencies as a table",
		Example: `  clocktree table
  clocktree table -s wlan_div=1/4 -s cpu_div=1/6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTable(cmd.Context(), newPrinter(cmd.OutOrStdout()), &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runTable(ctx context.Context, p *printer, flags *diagramFlags) error {
	logger := loggerFromContext(ctx)

	topo, selections, err := flags.load()
	if err != nil {
		return err
	}
	ctrl := controller.New(topo, nil, nil, controller.WithLogger(logger))
	if err := ctrl.Resize(topo.Canvas.Width, topo.Canvas.Height); err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(selections)) {
		if err := ctrl.SelectKey(key, selections[key]); err != nil {
			return err
		}
	}

	m := ctrl.Snapshot()
	p.line(StyleTitle.Render(topo.Name))
	for _, d := range m.Interactive() {
		p.keyValue(d.Label, d.Selected)
	}
	p.line(terminalTable(m).Render())
	return nil
}

// terminalTable lays out the terminals of m with their frequency and feeding
// dividers. The special terminal is highlighted.
func terminalTable(m *tree.Model) *table.Table {
	threshold := m.Render.HighlightBelow
	if threshold == 0 {
		threshold = render.DefaultHighlightBelow
	}
	terms := m.Terminals()
	rows := make([][]string, 0, len(terms))
	for _, n := range terms {
		rows = append(rows, []string{n.Label, frequency(n.Freq, n.Special, threshold), feeder(m, n)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Terminal", "Frequency", "Via").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(terms) {
				return base
			}
			switch {
			case terms[row].Special:
				return base.Inherit(styleTableSpecial)
			case col == 2:
				return base.Inherit(styleTableDim)
			}
			return base
		})
}

// feeder returns the labels of the dividers between the root and n.
func feeder(m *tree.Model, n *tree.Node) string {
	var path []string
	for id := n.ParentID; id != ""; {
		p, ok := m.Node(id)
		if !ok {
			break
		}
		if p.Kind == topology.KindDivider {
			path = append([]string{p.Label}, path...)
		}
		id = p.ParentID
	}
	if len(path) == 0 {
		return "-"
	}
	return strings.Join(path, " / ")
}
