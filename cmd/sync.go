package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/output"
	"github.com/manav03panchal/driverhelper/internal/outbox"
	"github.com/manav03panchal/driverhelper/internal/sink"
)

// statusTimeout bounds the call to a running daemon's status server.
const statusTimeout = 2 * time.Second

// Sync command flags.
var (
	syncFlagDryRun bool
	syncQueueAll   bool
	syncQueueLimit int
)

// syncCmd drains the outbox once.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send pending changes to the cloud",
	Long: `Send every pending change to the configured sink once.

The sink is the first configured of: webhook (CLOUD_SYNC_WEBHOOK_URL),
Postgres (DRIVERHELPER_SINK_POSTGRES_DSN), then accept-all. Nothing is sent
while the connectivity source reports offline.

Examples:
  driverhelper sync
  driverhelper sync --dry-run
  driverhelper sync status
  driverhelper sync queue --all`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

// syncStatusCmd shows outbox counts and the daemon's view.
var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending and synced counts",
	RunE:  runSyncStatus,
}

// syncQueueCmd lists outbox rows.
var syncQueueCmd = &cobra.Command{
	Use:     "queue",
	Aliases: []string{"outbox"},
	Short:   "List queued changes",
	Long: `List the changes waiting to sync, newest first. Use --all to include
rows that already synced.`,
	RunE: runSyncQueue,
}

func init() {
	syncCmd.Flags().BoolVar(&syncFlagDryRun, "dry-run", false,
		"Show what would be sent without sending")

	syncQueueCmd.Flags().BoolVarP(&syncQueueAll, "all", "a", false,
		"Include synced rows")
	syncQueueCmd.Flags().IntVarP(&syncQueueLimit, "limit", "n", 50,
		"Maximum rows to show (0 for all)")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncQueueCmd)

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	c := cmd.Context()

	chain, err := sink.FromConfig(c, ctx.Config)
	if err != nil {
		return err
	}
	defer chain.Close()

	resp := output.DrainResponse{Sink: chain.Name(), DryRun: syncFlagDryRun}

	src, err := connectivity.SourceFromConfig(ctx.Config.Connectivity, ctx.Config.Sync.Timeout)
	if err != nil {
		return err
	}
	if !src.Online(c) {
		resp.Status = "offline"
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(resp)
		}
		cliOut().Warning(output.SyncOfflineText)
		return nil
	}

	deviceID, err := outbox.LoadDeviceID(deviceIDPath())
	if err != nil {
		return err
	}
	drainer := outbox.NewDrainer(ctx.Repos.Outbox, chain, deviceID)

	if syncFlagDryRun {
		batch, err := drainer.Pending(c)
		if err != nil {
			return err
		}
		resp.Status = "dry-run"
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]any{"drain": resp, "batch": batch})
		}
		cli := cliOut()
		cli.Printf("Would send %s to %s\n", pluralize(len(batch.Items), "change", "changes"), chain.Name())
		return nil
	}

	drainCtx, cancel := context.WithTimeout(c, ctx.Config.Sync.Timeout)
	defer cancel()
	drainCtx = logging.WithDrainID(drainCtx, logging.NewDrainID())

	res, err := drainer.Drain(drainCtx)
	if err != nil {
		return err
	}
	resp.Succeeded = res.Succeeded
	resp.Failed = res.Failed
	resp.Status = "synced"

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(resp)
	}

	cli := cliOut()
	if res.Total() == 0 {
		cli.Muted("Nothing to sync.")
		return nil
	}
	cli.Success(pluralize(res.Succeeded, "change", "changes") + " synced to " + chain.Name())
	if res.Failed > 0 {
		cli.Warning(pluralize(res.Failed, "change", "changes") + " not acknowledged, will retry")
	}
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	stats, err := ctx.Repos.Outbox.Stats(cmd.Context())
	if err != nil {
		return err
	}

	chain, err := sink.FromConfig(cmd.Context(), ctx.Config)
	if err != nil {
		return err
	}
	defer chain.Close()

	resp := &output.SyncStatusResponse{Outbox: stats, Sink: chain.Name()}
	if st := daemonStatus(cmd); st != nil {
		resp.Controller = st
		resp.Indicator = output.SyncIndicator(st.Online, st.Syncing, st.LastSynced, now())
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(resp)
	}
	cliOut().PrintSyncStatus(resp)
	return nil
}

func runSyncQueue(cmd *cobra.Command, args []string) error {
	records, err := ctx.Repos.Outbox.List(cmd.Context(), syncQueueAll, syncQueueLimit)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(records))
	}
	cliOut().PrintQueue(records)
	return nil
}

// daemonStatus asks a running daemon for its controller status. It returns
// nil when no daemon is running or it does not answer.
func daemonStatus(cmd *cobra.Command) *connectivity.Status {
	status, err := fetchDaemonStatus(cmd.Context())
	if err != nil {
		logging.DebugLog("daemon status unavailable", logging.KeyError, err)
		return nil
	}
	return status
}
