// Package cmd provides the CLI commands for Driver Helper.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd prints a completion script for the chosen shell.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Print a completion script for your shell. Note and reminder ids,
health metric names and connectivity states complete from live data.

Bash:
  $ source <(driverhelper completion bash)
  $ driverhelper completion bash > /etc/bash_completion.d/driverhelper

Zsh (run "autoload -U compinit; compinit" once if completion is off):
  $ driverhelper completion zsh > "${fpath[1]}/_driverhelper"

Fish:
  $ driverhelper completion fish > ~/.config/fish/completions/driverhelper.fish

PowerShell:
  PS> driverhelper completion powershell | Out-String | Invoke-Expression

Start a new shell afterwards.`,
	DisableFlagsInUseLine: true,
	Annotations:           noStore(),
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		default:
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
