package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	var noDesc bool

	cmd := &cobra.Command{
		Use:       "completion <bash|zsh|fish|powershell>",
		Short:     "Print a shell completion script",
		GroupID:   GroupConfig,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Long: `Print a completion script for the given shell on stdout.

Worktree arguments complete to managed branches, and --strategy, --method,
--format and --hook complete to their valid values.`,
		Example: `  wtsweep completion fish > ~/.config/fish/completions/wtsweep.fish
  wtsweep completion bash > ~/.local/share/bash-completion/completions/wtsweep
  wtsweep completion zsh > "${fpath[1]}/_wtsweep"
  wtsweep completion powershell | Out-String | Invoke-Expression`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, !noDesc)
			case "zsh":
				if noDesc {
					return root.GenZshCompletionNoDesc(w)
				}
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, !noDesc)
			case "powershell":
				if noDesc {
					return root.GenPowerShellCompletion(w)
				}
				return root.GenPowerShellCompletionWithDesc(w)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}

	cmd.Flags().BoolVar(&noDesc, "no-descriptions", false, "Omit completion descriptions")
	return cmd
}
