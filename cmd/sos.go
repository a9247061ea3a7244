package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
)

// SOS command flags.
var (
	sosFlagLat     float64
	sosFlagLng     float64
	sosFlagMessage string
)

// sosCmd raises an SOS alert.
var sosCmd = &cobra.Command{
	Use:   "sos",
	Short: "Raise an SOS alert",
	Long: `Record an SOS alert. The alert is saved on this device at once and sent
with the next sync. Pass both --lat and --lng to include your location.

Examples:
  driverhelper sos
  driverhelper sos --lat 12.9716 --lng 77.5946
  driverhelper sos --message "Flat tyre on NH44"`,
	Args: cobra.NoArgs,
	RunE: runSos,
}

// sosHistoryCmd lists past alerts.
var sosHistoryCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"list", "ls"},
	Short:   "List SOS alerts, newest first",
	RunE:    runSosHistory,
}

func init() {
	sosCmd.Flags().Float64Var(&sosFlagLat, "lat", 0, "Latitude in decimal degrees")
	sosCmd.Flags().Float64Var(&sosFlagLng, "lng", 0, "Longitude in decimal degrees")
	sosCmd.Flags().StringVarP(&sosFlagMessage, "message", "m", "",
		"Message (default \""+model.DefaultSosMessage+"\")")
	sosCmd.MarkFlagsRequiredTogether("lat", "lng")

	sosCmd.AddCommand(sosHistoryCmd)
	rootCmd.AddCommand(sosCmd)
}

func runSos(cmd *cobra.Command, args []string) error {
	var lat, lng *float64
	if cmd.Flags().Changed("lat") {
		lat, lng = &sosFlagLat, &sosFlagLng
	}

	in := model.NewSosInput(lat, lng, sosFlagMessage)
	id, err := ctx.Repos.Sos.Create(cmd.Context(), in)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCreated(model.EntitySosLogs, id)
	}

	cli := cliOut()
	cli.Warning("SOS recorded: " + in.Message)
	cli.Printf("Location: %s\n", in.Address)
	if ctx.State.Pending() > 0 {
		cli.Muted("It will be sent with the next sync.")
	}
	return nil
}

func runSosHistory(cmd *cobra.Command, args []string) error {
	logs := ctx.State.Snapshot().SosLogs

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(logs))
	}
	cliOut().PrintSosLogs(logs)
	return nil
}
