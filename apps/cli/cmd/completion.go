package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a completion script for httper and print it to stdout.

  bash:        source <(httper completion bash)
  zsh:         httper completion zsh > "${fpath[1]}/_httper"
  fish:        httper completion fish > ~/.config/fish/completions/httper.fish
  powershell:  httper completion powershell | Out-String | Invoke-Expression

Request files complete on .http and .rest extensions.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}

// requestFileCompletion completes request file arguments.
func requestFileCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"http", "rest"}, cobra.ShellCompDirectiveFilterFileExt
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd, validateCmd, listCmd, benchCmd, exportCmd} {
		c.ValidArgsFunction = requestFileCompletion
	}
	rootCmd.AddCommand(completionCmd)
}
