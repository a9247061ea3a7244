package cmd

import (
	"github.com/spf13/cobra"
)

// profileCmd represents the profile command.
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change your profile",
	Long: `Your profile holds the name shown on community posts.

Examples:
  driverhelper profile set-name "Asha Rao"
  driverhelper profile show`,
	RunE: runProfileShow,
}

var profileSetNameCmd = &cobra.Command{
	Use:   "set-name NAME",
	Short: "Set your display name",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetName,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE:  runProfileShow,
}

func init() {
	profileCmd.AddCommand(profileSetNameCmd)
	profileCmd.AddCommand(profileShowCmd)

	rootCmd.AddCommand(profileCmd)
}

func runProfileSetName(cmd *cobra.Command, args []string) error {
	if err := ctx.Repos.Profile.SaveName(cmd.Context(), args[0]); err != nil {
		return err
	}

	p := ctx.State.Snapshot().Profile
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"status": "saved", "profile": p})
	}
	cliOut().Success("Name saved: " + p.Name)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p := ctx.State.Snapshot().Profile

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"profile": p})
	}
	cliOut().PrintProfile(p)
	return nil
}
