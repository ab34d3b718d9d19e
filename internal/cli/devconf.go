package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/devconf"
	"github.com/matzehuels/clocktree/pkg/pipeline"
)

// devconfCommand groups device config helpers.
func (c *CLI) devconfCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devconf",
		Short: "Read and write divider settings in a device config",
	}
	cmd.AddCommand(c.devconfShowCommand())
	cmd.AddCommand(c.devconfWriteCommand())
	return cmd
}

// devconfShowCommand prints the selections a device config implies.
func (c *CLI) devconfShowCommand() *cobra.Command {
	var topoPath string
	cmd := &cobra.Command{
		Use:   "show <device.toml>",
		Short: "Show the divider selections a device config implies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())
			topo, err := loadTopology(topoPath)
			if err != nil {
				return err
			}
			dev, err := devconf.Load(args[0])
			if err != nil {
				return err
			}
			sel, err := devconf.Selections(topo, dev)
			if err != nil {
				return err
			}
			if len(sel) == 0 {
				p.info("No %s clock entries in %s", devconf.DeviceName, args[0])
				return nil
			}
			p.selections(sel)
			return nil
		},
	}
	cmd.Flags().StringVarP(&topoPath, "topology", "t", "", "topology file; default is the built-in tree")
	return cmd
}

// devconfWriteCommand writes selections back into a device config.
func (c *CLI) devconfWriteCommand() *cobra.Command {
	var (
		topoPath string
		selects  []string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "write <device.toml>",
		Short: "Write divider selections into a device config",
		Long: `Write sets the rcc device's clock entries from the given selections (dividers
without one use their default) and marks it for app-level init. Other devices
are kept. Comments and key order in the file are not preserved.`,
		Example: `  clocktree devconf write device.toml -s cpu_div=1/4 -s wlan_div=1/3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			topo, err := loadTopology(topoPath)
			if err != nil {
				return err
			}
			sel, err := pipeline.ParseSelections(selects)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read device config: %w", err)
			}
			out, err := devconf.Update(data, topo, sel)
			if err != nil {
				return err
			}
			dst := output
			if dst == "" {
				dst = args[0]
			}
			if err := os.WriteFile(dst, out, 0o644); err != nil {
				return fmt.Errorf("write device config: %w", err)
			}
			logger.Debug("device config updated", "path", dst, "selections", sel)
			newPrinter(cmd.OutOrStdout()).success("Updated %s", dst)
			return nil
		},
	}
	cmd.Flags().StringVarP(&topoPath, "topology", "t", "", "topology file; default is the built-in tree")
	cmd.Flags().StringArrayVarP(&selects, "select", "s", nil, "divider selection as key=ratio (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write here instead of in place")
	return cmd
}
