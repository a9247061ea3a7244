package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/output"
)

// nearbyCmd lists nearby drivers.
var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List nearby drivers, closest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		drivers := ctx.State.Snapshot().Nearby

		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(output.NewListResponse(drivers))
		}
		cliOut().PrintNearby(drivers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nearbyCmd)
}
