package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
	"github.com/manav03panchal/driverhelper/internal/parser"
)

// Remind command flags.
var (
	remindFlagAt   string
	remindFlagUndo bool
	remindListAll  bool
)

// remindCmd represents the remind command.
var remindCmd = &cobra.Command{
	Use:     "remind",
	Aliases: []string{"r", "rem"},
	Short:   "Manage reminders",
	Long: `Create and complete reminders with natural language times.

Time formats:
  - Relative: +30m, +2h, +1d
  - Natural language: "tomorrow 9am", "friday 5pm"
  - Date/time: "2026-01-15 14:00"

Examples:
  driverhelper remind add "Renew permit" --at "friday 10am"
  driverhelper remind add "Oil change" --at +2d
  driverhelper remind list
  driverhelper remind done 3`,
	RunE: runRemindList,
}

// remindAddCmd creates a reminder.
var remindAddCmd = &cobra.Command{
	Use:   "add TITLE --at TIME",
	Short: "Create a reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemindAdd,
}

// remindListCmd lists reminders.
var remindListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List reminders in due order",
	Long: `List open reminders in due order. Use --all to include completed ones.

Examples:
  driverhelper remind list
  driverhelper remind list --all`,
	RunE: runRemindList,
}

// remindDoneCmd toggles completion.
var remindDoneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a reminder as complete",
	Long: `Mark a reminder as complete, or reopen it with --undo.

Examples:
  driverhelper remind done 3
  driverhelper remind done 3 --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runRemindDone,
}

func init() {
	remindAddCmd.Flags().StringVarP(&remindFlagAt, "at", "a", "",
		"When to remind (e.g. 'tomorrow 9am', +2h)")
	_ = remindAddCmd.MarkFlagRequired("at")

	remindListCmd.Flags().BoolVar(&remindListAll, "all", false,
		"Include completed reminders")

	remindDoneCmd.Flags().BoolVar(&remindFlagUndo, "undo", false,
		"Mark the reminder as not done")
	remindDoneCmd.ValidArgsFunction = completeReminderIDs

	remindCmd.AddCommand(remindAddCmd)
	remindCmd.AddCommand(remindListCmd)
	remindCmd.AddCommand(remindDoneCmd)

	rootCmd.AddCommand(remindCmd)
}

func runRemindAdd(cmd *cobra.Command, args []string) error {
	at, err := parser.ParseReminderTime(remindFlagAt, now())
	if err != nil {
		return userInput(err)
	}

	in := model.ReminderInput{Title: args[0], RemindAt: at}
	id, err := ctx.Repos.Reminders.Create(cmd.Context(), in)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCreated(model.EntityReminders, id)
	}

	cli := cliOut()
	cli.Success("Reminder saved: " + in.Title)
	cli.Printf("Due: %s\n", parser.FormatReminderTime(at, now()))
	return nil
}

func runRemindList(cmd *cobra.Command, args []string) error {
	var reminders []model.Reminder
	for _, r := range ctx.State.Snapshot().Reminders {
		if remindListAll || !r.Completed {
			reminders = append(reminders, r)
		}
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(reminders))
	}

	cli := cliOut()
	if due := ctx.State.DueReminders(now()); len(due) > 0 {
		cli.Warning(pluralize(len(due), "reminder", "reminders") + " due")
	}
	cli.PrintReminders(reminders)
	return nil
}

func runRemindDone(cmd *cobra.Command, args []string) error {
	id, err := parseID("remind", args[0])
	if err != nil {
		return err
	}

	r, err := ctx.Repos.Reminders.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	completed := !remindFlagUndo
	if err := ctx.Repos.Reminders.SetCompleted(cmd.Context(), id, completed); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{
			"status":    "updated",
			"id":        id,
			"title":     r.Title,
			"completed": completed,
		})
	}

	if completed {
		cliOut().Success("Completed: " + r.Title)
	} else {
		cliOut().Success("Reopened: " + r.Title)
	}
	return nil
}
