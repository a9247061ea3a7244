package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/output"
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Inspect configuration",
	Long: `Show the effective configuration. Values come from the environment,
then the YAML config file, then defaults.

Examples:
  driverhelper config show
  driverhelper config env
  driverhelper config path`,
	Annotations: noStore(),
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that configure driverhelper",
	RunE: func(cmd *cobra.Command, args []string) error {
		help, err := config.EnvHelp()
		if err != nil {
			return err
		}
		ctx.Formatter.Println(help)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		ctx.Formatter.Println(config.DefaultPath())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// configEntry is one effective setting.
type configEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// configEntries flattens cfg for display. Secrets are masked.
func configEntries(cfg *config.RuntimeConfig) []configEntry {
	return []configEntry{
		{"storage.path", cfg.Storage.Path},
		{"storage.min_free_space", strconv.FormatUint(cfg.Storage.MinFreeSpace, 10)},
		{"storage.min_free_space_warning", strconv.FormatUint(cfg.Storage.MinFreeSpaceWarning, 10)},
		{"sync.interval", cfg.Sync.Interval.String()},
		{"sync.timeout", cfg.Sync.Timeout.String()},
		{"sync.retention", cfg.Sync.Retention.String()},
		{"sink.webhook_url", logging.MaskURL(cfg.Sink.WebhookURL)},
		{"sink.webhook_token", logging.MaskValue(cfg.Sink.WebhookToken)},
		{"sink.postgres_dsn", logging.MaskURL(cfg.Sink.PostgresDSN)},
		{"sink.postgres_table", cfg.Sink.PostgresTable},
		{"sink.source", cfg.Sink.Source},
		{"connectivity.mode", cfg.Connectivity.Mode},
		{"connectivity.file", cfg.Connectivity.File},
		{"connectivity.probe_url", cfg.Connectivity.ProbeURL},
		{"connectivity.probe_interval", cfg.Connectivity.ProbeInterval.String()},
		{"daemon.http_addr", cfg.Daemon.HTTPAddr},
		{"daemon.prune_schedule", cfg.Daemon.PruneSchedule},
		{"daemon.kill_timeout", cfg.Daemon.KillTimeout.String()},
		{"gateway.addr", cfg.Gateway.Addr},
		{"gateway.ledger_path", cfg.Gateway.LedgerPath},
		{"gateway.ledger_ttl", cfg.Gateway.LedgerTTL.String()},
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	entries := configEntries(ctx.Config)

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(entries))
	}

	rows := make([]output.TableRow, len(entries))
	for i, e := range entries {
		v := e.Value
		if v == "" {
			v = "-"
		}
		rows[i] = output.TableRow{Columns: []string{e.Key, v}}
	}
	cli := cliOut()
	cli.PrintTable([]string{"KEY", "VALUE"}, rows)
	cli.Println("")
	cli.Muted(fmt.Sprintf("Config file: %s", config.DefaultPath()))
	return nil
}
