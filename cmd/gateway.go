package cmd

import (
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/gateway"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/sink"
)

var gatewayFlagAddr string

// gatewayCmd groups the sync gateway commands.
var gatewayCmd = &cobra.Command{
	Use:         "gateway",
	Short:       "Run the reference sync gateway",
	Annotations: noStore(),
}

// gatewayServeCmd serves /api/sync.
var gatewayServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /api/sync",
	Long: `Serve the sync route devices post their batches to.

Each item is acknowledged once per device. Items already in the ledger are
acknowledged without being forwarded again. New items go to the configured
sink chain (webhook, then Postgres, then accept-all).

Examples:
  driverhelper gateway serve
  driverhelper gateway serve --addr 127.0.0.1:8787`,
	Args: cobra.NoArgs,
	RunE: runGatewayServe,
}

func init() {
	gatewayServeCmd.Flags().StringVar(&gatewayFlagAddr, "addr", "",
		"Listen address (default DRIVERHELPER_GATEWAY_ADDR or :8787)")

	gatewayCmd.AddCommand(gatewayServeCmd)
	rootCmd.AddCommand(gatewayCmd)
}

func runGatewayServe(cmd *cobra.Command, args []string) error {
	cfg := ctx.Config
	addr := cfg.Gateway.Addr
	if gatewayFlagAddr != "" {
		addr = gatewayFlagAddr
	}

	if webhookLoops(cfg.Sink.WebhookURL, addr) {
		return errors.NewUserError(
			"the webhook sink points at this gateway",
			"Unset CLOUD_SYNC_WEBHOOK_URL for the gateway process or forward to another host")
	}

	ledger, err := gateway.OpenLedger(gateway.LedgerOptions{
		Path: cfg.Gateway.LedgerPath,
		TTL:  cfg.Gateway.LedgerTTL,
	})
	if err != nil {
		return err
	}
	defer ledger.Close()

	chain, err := sink.FromConfig(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer chain.Close()

	c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := gateway.NewServer(ledger, chain)
	if !ctx.IsJSON() {
		cliOut().Muted("Gateway forwarding to " + chain.Name() + " on " + addr + " (Ctrl+C to stop)")
	}
	if err := srv.ListenAndServe(c, addr); err != nil {
		return err
	}
	logging.Info("gateway stopped")
	return nil
}

// webhookLoops reports whether webhookURL targets a local listener on
// the same port as addr.
func webhookLoops(webhookURL, addr string) bool {
	if webhookURL == "" {
		return false
	}
	u, err := url.Parse(webhookURL)
	if err != nil {
		return false
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	targetPort := u.Port()
	if targetPort == "" {
		targetPort = map[string]string{"http": "80", "https": "443"}[u.Scheme]
	}
	if targetPort != port {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1", host:
		return true
	}
	return false
}
