package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
	"github.com/manav03panchal/driverhelper/internal/parser"
)

// defaultCategory matches the earnings form default.
const defaultCategory = "Ride"

// Earn command flags.
var (
	earnFlagExpense  bool
	earnFlagCategory string
	earnFlagNotes    string
	earnFlagDate     string
)

// earnCmd represents the earn command.
var earnCmd = &cobra.Command{
	Use:     "earn",
	Aliases: []string{"e", "money"},
	Short:   "Track earnings and expenses",
	Long: `Record income and expenses. Entries are saved on this device and queued
for sync.

Examples:
  driverhelper earn add 850
  driverhelper earn add 200 --expense --category Fuel
  driverhelper earn add 120 --category Toll --date yesterday
  driverhelper earn list`,
	RunE: runEarnList,
}

// earnAddCmd records a transaction.
var earnAddCmd = &cobra.Command{
	Use:   "add AMOUNT",
	Short: "Record income or an expense",
	Long: `Record income, or an expense with --expense.

Amounts accept plain numbers, decimals, thousands separators and a leading
currency symbol: 500, 12.50, 1,200, ₹350.

Examples:
  driverhelper earn add 500
  driverhelper earn add 60 --expense --category Toll --notes "Highway"
  driverhelper earn add 900 --date "2024-01-01"`,
	Args: cobra.ExactArgs(1),
	RunE: runEarnAdd,
}

// earnListCmd lists transactions.
var earnListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List transactions, newest first",
	RunE:    runEarnList,
}

func init() {
	earnAddCmd.Flags().BoolVarP(&earnFlagExpense, "expense", "x", false,
		"Record an expense instead of income")
	earnAddCmd.Flags().StringVarP(&earnFlagCategory, "category", "c", defaultCategory,
		"Category (e.g. Ride, Fuel, Toll)")
	earnAddCmd.Flags().StringVarP(&earnFlagNotes, "notes", "n", "",
		"Free-text notes")
	earnAddCmd.Flags().StringVarP(&earnFlagDate, "date", "d", "",
		"Date of the entry (default now, e.g. yesterday, 2024-01-01)")

	earnCmd.AddCommand(earnAddCmd)
	earnCmd.AddCommand(earnListCmd)

	rootCmd.AddCommand(earnCmd)
}

func runEarnAdd(cmd *cobra.Command, args []string) error {
	amount, err := parser.ParseAmount(args[0])
	if err != nil {
		return userInput(err)
	}

	in := model.TransactionInput{
		Kind:     model.KindIncome,
		Amount:   amount,
		Category: earnFlagCategory,
		Notes:    earnFlagNotes,
	}
	if earnFlagExpense {
		in.Kind = model.KindExpense
	}
	if earnFlagDate != "" {
		res := parser.ParseTimestampAt(earnFlagDate, now())
		if res.Error != nil {
			return userInput(res.Error)
		}
		in.Date = res.Time
	}

	id, err := ctx.Repos.Transactions.Create(cmd.Context(), in)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCreated(model.EntityTransactions, id)
	}

	cli := cliOut()
	if in.Kind == model.KindExpense {
		cli.Success("Expense of " + output.FormatMoney(in.Amount) + " saved")
	} else {
		cli.Success("Income of " + output.FormatMoney(in.Amount) + " saved")
	}
	cli.PrintSummary(ctx.State.DailySummary(now()))
	return nil
}

func runEarnList(cmd *cobra.Command, args []string) error {
	txns := ctx.State.Snapshot().Transactions

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(txns))
	}

	cliOut().PrintTransactions(txns)
	return nil
}
