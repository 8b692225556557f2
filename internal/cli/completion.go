package cli

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for promptvault.

To load completions:

Bash:
  $ source <(promptvault completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ promptvault completion bash > /etc/bash_completion.d/promptvault
  # macOS:
  $ promptvault completion bash > $(brew --prefix)/etc/bash_completion.d/promptvault

Zsh:
  $ source <(promptvault completion zsh)
  # To load completions for each session, execute once:
  $ promptvault completion zsh > "${fpath[1]}/_promptvault"

Fish:
  $ promptvault completion fish | source
  # To load completions for each session, execute once:
  $ promptvault completion fish > ~/.config/fish/completions/promptvault.fish

PowerShell:
  PS> promptvault completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}
