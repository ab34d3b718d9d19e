package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/controller"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// topologyCommand groups topology file helpers.
func (c *CLI) topologyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Inspect and validate topology files",
	}
	cmd.AddCommand(c.topologyDumpCommand())
	cmd.AddCommand(c.topologyValidateCommand())
	return cmd
}

// topologyDumpCommand prints the built-in topology, the usual starting point
// for a board-specific file.
func (c *CLI) topologyDumpCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the built-in topology",
		Example: `  clocktree topology dump > board.toml
  clocktree topology dump --format yaml > board.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			switch topology.Format(format) {
			case topology.FormatTOML:
				data = topology.DefaultSource()
			case topology.FormatYAML:
				var err error
				if data, err = topology.Encode(topology.Default(), topology.FormatYAML); err != nil {
					return err
				}
			default:
				return fmt.Errorf("invalid format: %s (must be 'toml' or 'yaml')", format)
			}
			_, err := cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(topology.FormatTOML), "output encoding: toml, yaml")
	return cmd
}

// topologyValidateCommand loads each file and builds it once at canvas size,
// which runs every structural and layout check.
func (c *CLI) topologyValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check that topology files load and build",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			p := newPrinter(cmd.OutOrStdout())
			failed := 0
			for _, path := range args {
				topo, err := topology.Load(path)
				if err == nil {
					ctrl := controller.New(topo, nil, nil, controller.WithLogger(logger))
					err = ctrl.Resize(topo.Canvas.Width, topo.Canvas.Height)
					if err == nil {
						p.success("%s", path)
						p.detail("%d nodes, %d dividers with controls", len(topo.Nodes), len(ctrl.Controls()))
						continue
					}
				}
				failed++
				p.fail("%s: %v", path, err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d topology files invalid", failed, len(args))
			}
			return nil
		},
	}
}
