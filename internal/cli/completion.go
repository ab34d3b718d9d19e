package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for clocktree.

Completions cover commands, flags, output formats and divider selections
(-s cpu_div=<TAB> lists the ratios the divider offers).

  $ source <(clocktree completion bash)
  $ clocktree completion zsh > "${fpath[1]}/_clocktree"
  $ clocktree completion fish | source
  PS> clocktree completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// completeSelections completes key=ratio pairs for the dividers of the
// topology named by f. Before the "=" it offers keys, after it the ratios.
func completeSelections(f *diagramFlags) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		topo, err := loadTopology(f.topology)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		key, _, hasValue := strings.Cut(toComplete, "=")
		var out []cobra.Completion
		for _, n := range topo.Nodes {
			if !n.Interactive() {
				continue
			}
			if !hasValue {
				out = append(out, cobra.CompletionWithDesc(n.Key+"=", n.ChangeLabel))
				continue
			}
			if n.Key == key {
				for _, opt := range n.Options {
					out = append(out, n.Key+"="+opt)
				}
			}
		}
		directive := cobra.ShellCompDirectiveNoFileComp
		if !hasValue {
			directive |= cobra.ShellCompDirectiveNoSpace
		}
		return out, directive
	}
}

// completeFormats completes the comma-separated --format list.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	chosen := strings.Split(prefix, ",")
	var out []cobra.Completion
	for _, f := range []string{pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatNodelink} {
		if !slices.Contains(chosen, f) {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
