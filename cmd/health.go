package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
)

// Health command flags.
var (
	healthFlagUnit  string
	healthFlagNotes string
)

// healthCmd represents the health command.
var healthCmd = &cobra.Command{
	Use:     "health",
	Aliases: []string{"h"},
	Short:   "Log health metrics",
	Long: `Log health readings such as sleep, water or blood pressure.

Examples:
  driverhelper health add sleep 6.5 --unit hours
  driverhelper health add water 2 --unit litres --notes "after shift"
  driverhelper health list`,
	RunE: runHealthList,
}

// healthAddCmd logs a metric.
var healthAddCmd = &cobra.Command{
	Use:   "add METRIC VALUE",
	Short: "Log a health metric",
	Args:  cobra.ExactArgs(2),
	RunE:  runHealthAdd,
}

// healthListCmd lists metrics.
var healthListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List health metrics, newest first",
	RunE:    runHealthList,
}

func init() {
	healthAddCmd.Flags().StringVarP(&healthFlagUnit, "unit", "u", "", "Unit (e.g. hours, bpm)")
	healthAddCmd.Flags().StringVarP(&healthFlagNotes, "notes", "n", "", "Free-text notes")
	healthAddCmd.ValidArgsFunction = completeFixed("sleep", "water", "steps", "heart_rate", "blood_pressure", "weight")

	healthCmd.AddCommand(healthAddCmd)
	healthCmd.AddCommand(healthListCmd)

	rootCmd.AddCommand(healthCmd)
}

func runHealthAdd(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return errors.NewUserErrorWithField("value", args[1],
			"Value must be a number", "Enter a value like 7.5")
	}

	in := model.HealthInput{Metric: args[0], Value: value, Unit: healthFlagUnit, Notes: healthFlagNotes}
	id, err := ctx.Repos.Health.Create(cmd.Context(), in)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCreated(model.EntityHealthMetrics, id)
	}
	cliOut().Success("Logged " + in.Metric)
	return nil
}

func runHealthList(cmd *cobra.Command, args []string) error {
	metrics := ctx.State.Snapshot().Health

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(metrics))
	}
	cliOut().PrintHealth(metrics)
	return nil
}
