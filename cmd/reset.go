package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

// Reset command flags.
var (
	resetFlagForce  bool
	resetFlagBackup bool
)

// resetCmd clears local data.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all local data",
	Long: `Delete every record on this device, including changes that have not
synced yet. Use --backup to keep a copy of the database first.

Examples:
  driverhelper reset --backup
  driverhelper reset --force`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetFlagForce, "force", false, "Skip confirmation")
	resetCmd.Flags().BoolVar(&resetFlagBackup, "backup", false, "Back up the database before resetting")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	pending := ctx.State.Pending()

	if !resetFlagForce {
		if ctx.IsJSON() || !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.NewUserError("reset needs confirmation", "Pass --force to reset without a prompt")
		}
		cli := cliOut()
		if pending > 0 {
			cli.Warning(pluralize(pending, "change has", "changes have") + " not synced and will be lost")
		}
		cli.Print("Type 'reset' to delete all local data: ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(answer) != "reset" {
			cli.Muted("Cancelled.")
			return nil
		}
	}

	var backupPath string
	if resetFlagBackup {
		p, err := storage.CreateBackup(cmd.Context(), ctx.DB)
		if err != nil {
			return err
		}
		backupPath = p
	}

	if err := ctx.DB.Reset(cmd.Context()); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{
			"status":       "reset",
			"lost_pending": pending,
			"backup":       backupPath,
		})
	}

	cli := cliOut()
	cli.Success("Local data cleared")
	if backupPath != "" {
		cli.Muted("Backup: " + backupPath)
	}
	return nil
}
