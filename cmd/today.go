package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
)

// todayCmd shows the daily summary.
var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"t"},
	Short:   "Show today's earnings, due reminders and sync state",
	Long: `Show today's income, expenses and balance, today's transactions,
reminders that are due and how many changes are waiting to sync.

Examples:
  driverhelper today
  driverhelper today --format json`,
	RunE: runToday,
}

func init() {
	rootCmd.AddCommand(todayCmd)
}

// todayResponse is the JSON shape of the today view.
type todayResponse struct {
	Summary      model.DailySummary  `json:"summary"`
	Transactions []model.Transaction `json:"transactions"`
	DueReminders []model.Reminder    `json:"due_reminders"`
	Pending      int                 `json:"pending"`
	Indicator    string              `json:"indicator"`
}

func runToday(cmd *cobra.Command, args []string) error {
	t := now()
	snap := ctx.State.Snapshot()
	summary := model.Summarize(t, snap.Transactions)

	resp := todayResponse{
		Summary:      summary,
		Transactions: todaysTransactions(snap.Transactions, summary.Day),
		DueReminders: ctx.State.DueReminders(t),
		Pending:      snap.Outbox.Pending,
		Indicator:    syncIndicator(cmd, t),
	}
	if resp.Transactions == nil {
		resp.Transactions = []model.Transaction{}
	}
	if resp.DueReminders == nil {
		resp.DueReminders = []model.Reminder{}
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(resp)
	}

	cli := cliOut()
	if snap.Profile != nil {
		cli.Muted("Hello, " + snap.Profile.Name)
	}
	cli.PrintSummary(summary)
	cli.Println("")
	if len(resp.Transactions) > 0 {
		cli.PrintTransactions(resp.Transactions)
		cli.Println("")
	}
	if len(resp.DueReminders) > 0 {
		cli.Warning(pluralize(len(resp.DueReminders), "reminder", "reminders") + " due")
		cli.PrintReminders(resp.DueReminders)
		cli.Println("")
	}
	cli.Muted(pluralize(resp.Pending, "change", "changes") + " waiting to sync · " + resp.Indicator)
	return nil
}

// todaysTransactions keeps transactions dated on day.
func todaysTransactions(txns []model.Transaction, day time.Time) []model.Transaction {
	end := day.AddDate(0, 0, 1)
	var out []model.Transaction
	for _, t := range txns {
		d := t.Date.In(day.Location())
		if !d.Before(day) && d.Before(end) {
			out = append(out, t)
		}
	}
	return out
}

// syncIndicator renders the sync line from the daemon when it answers.
func syncIndicator(cmd *cobra.Command, t time.Time) string {
	st := daemonStatus(cmd)
	if st == nil {
		return "Daemon not running"
	}
	return output.SyncIndicator(st.Online, st.Syncing, st.LastSynced, t)
}
