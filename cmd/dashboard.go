package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/daemon"
	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/tui"
)

// dashboardCmd represents the dashboard command.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "tui"},
	Short:   "Open the live dashboard",
	Long: `Open a terminal dashboard with today's summary, due reminders, recent
transactions and the sync indicator. It refreshes every two seconds and
shows the daemon's sync state when a daemon is running.

Keyboard Controls:
  r - Refresh now
  q - Quit dashboard

Examples:
  driverhelper dashboard
  driverhelper dash`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.NewUserError("the dashboard needs a terminal",
			"Use 'driverhelper today' or 'driverhelper sync status' in scripts")
	}

	cfg := tui.DashboardConfig{
		State:      ctx.State,
		SyncStatus: fetchDaemonStatus,
		Now:        now,
	}
	return tui.Run(cfg)
}

// fetchDaemonStatus returns nil without error when no daemon is running.
func fetchDaemonStatus(c context.Context) (*connectivity.Status, error) {
	st := daemon.NewDaemon(nil, daemon.Options{Config: ctx.Config}).GetStatus()
	if !st.Running || st.HTTPAddr == "" {
		return nil, nil
	}
	c, cancel := context.WithTimeout(c, statusTimeout)
	defer cancel()
	return daemon.FetchStatus(c, st.HTTPAddr)
}
