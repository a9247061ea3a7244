package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/errors"
)

// netCmd reports or flips the connectivity state file.
var netCmd = &cobra.Command{
	Use:   "net [online|offline]",
	Short: "Show or set the connectivity state",
	Long: `In file mode the daemon watches a state file holding "online" or
"offline". This command writes that file, so a running daemon switches at
once. Without an argument it prints the state the configured source sees.

Examples:
  driverhelper net
  driverhelper net offline
  driverhelper net online`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeFixed("online", "offline"),
	Annotations:       noStore(),
	RunE:              runNet,
}

func init() {
	rootCmd.AddCommand(netCmd)
}

func runNet(cmd *cobra.Command, args []string) error {
	cfg := ctx.Config.Connectivity

	if len(args) == 0 {
		src, err := connectivity.SourceFromConfig(cfg, ctx.Config.Sync.Timeout)
		if err != nil {
			return err
		}
		c, cancel := context.WithTimeout(cmd.Context(), ctx.Config.Sync.Timeout)
		defer cancel()
		return printNetState(cfg.Mode, src.Online(c))
	}

	online, ok := connectivity.ParseState(args[0])
	if !ok {
		return errors.NewUserErrorWithField("state", args[0], "unknown connectivity state", "Use online or offline")
	}
	if cfg.Mode != config.ModeFile {
		return errors.NewUserError("connectivity mode is "+cfg.Mode,
			"Set DRIVERHELPER_CONNECTIVITY_MODE=file to switch state with this command")
	}
	if err := connectivity.WriteState(cfg.File, online); err != nil {
		return err
	}
	return printNetState(cfg.Mode, online)
}

func printNetState(mode string, online bool) error {
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"mode": mode, "online": online})
	}
	if online {
		cliOut().Success("Online (" + mode + ")")
	} else {
		cliOut().Warning("Offline (" + mode + ")")
	}
	return nil
}
