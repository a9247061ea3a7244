package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/daemon"
	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/outbox"
	"github.com/manav03panchal/driverhelper/internal/runtime"
	"github.com/manav03panchal/driverhelper/internal/sink"
)

// Daemon command flags.
var (
	daemonStartFlagForeground bool
	daemonLogsFlagTail        int
	daemonLogsFlagFollow      bool
	daemonInstallFlagForce    bool
)

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"d", "bg", "service"},
	Short:   "Manage the background sync daemon",
	Long: `Manage the background daemon that watches connectivity and drains the
sync queue whenever the device is online.

Examples:
  driverhelper daemon start
  driverhelper daemon status
  driverhelper daemon stop
  driverhelper daemon logs --tail 20`,
	Annotations: noStore(),
	RunE:        runDaemonStatus,
}

// daemonStartCmd starts the daemon.
var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the sync daemon.

The daemon drains the queue on every online transition and every
DRIVERHELPER_SYNC_INTERVAL while online, and serves its status on
DRIVERHELPER_DAEMON_HTTP_ADDR.

Examples:
  driverhelper daemon start                # Start in background
  driverhelper daemon start --foreground   # Start in foreground (for debugging)`,
	RunE: runDaemonStart,
}

// daemonStopCmd stops the daemon.
var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE:  runDaemonStop,
}

// daemonDrainCmd nudges the running daemon.
var daemonDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Ask the running daemon to sync now",
	Long: `Signal the running daemon to drain the sync queue immediately instead
of waiting for the next interval. The daemon ignores the request while
offline or while a drain is already running.`,
	Args: cobra.NoArgs,
	RunE: runDaemonDrain,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

// daemonLogsCmd shows daemon logs.
var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `View the daemon log file.

Examples:
  driverhelper daemon logs
  driverhelper daemon logs --tail 50
  driverhelper daemon logs --follow`,
	RunE: runDaemonLogs,
}

// daemonInstallCmd installs the daemon as a user service.
var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install daemon as a user service",
	Long: `Install the daemon as a service that starts automatically on login.

On macOS, this creates a launchd agent in ~/Library/LaunchAgents.
On Linux, this creates a systemd user service in ~/.config/systemd/user.
DRIVERHELPER_*, CLOUD_SYNC_* and SUPABASE_* variables from the current
environment are copied into the unit.

Examples:
  driverhelper daemon install
  driverhelper daemon install --force   # Reinstall if already installed`,
	RunE: runDaemonInstall,
}

// daemonUninstallCmd removes the user service.
var daemonUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall daemon user service",
	RunE:  runDaemonUninstall,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonStartFlagForeground, "foreground", false,
		"Run in foreground (don't daemonize)")

	daemonLogsCmd.Flags().IntVarP(&daemonLogsFlagTail, "tail", "n", 20,
		"Number of lines to show")
	daemonLogsCmd.Flags().BoolVar(&daemonLogsFlagFollow, "follow", false,
		"Follow log output (like tail -f)")

	daemonInstallCmd.Flags().BoolVar(&daemonInstallFlagForce, "force", false,
		"Force reinstall if already installed")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonDrainCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonLogsCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)

	rootCmd.AddCommand(daemonCmd)
}

// newDaemonManager returns a daemon handle for PID and state lookups.
func newDaemonManager() *daemon.Daemon {
	d := daemon.NewDaemon(nil, daemon.Options{Config: ctx.Config, Version: Version})
	d.SetDebug(ctx.Debug)
	return d
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	if !daemonStartFlagForeground {
		d := newDaemonManager()
		if d.IsRunning() {
			return errors.NewUserError(
				fmt.Sprintf("daemon is already running (PID: %d)", d.GetStatus().PID),
				"Stop it with 'driverhelper daemon stop'")
		}

		pid, err := d.StartBackground()
		if err != nil {
			return err
		}

		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]any{"status": "started", "pid": pid})
		}
		cliOut().Success(fmt.Sprintf("Daemon started (PID: %d)", pid))
		return nil
	}

	return runDaemonForeground(cmd)
}

// runDaemonForeground opens the store and runs the daemon until a signal.
func runDaemonForeground(cmd *cobra.Command) error {
	cfg := ctx.Config

	// A background child has its stderr on the startup log already.
	echo := isatty.IsTerminal(os.Stderr.Fd())
	closer, err := daemon.SetupLogging(daemon.GetLogPath(), cfg.Daemon, echo, ctx.Debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := runtime.DefaultOptions()
	opts.Config = cfg
	opts.Format = ctx.Formatter.Format
	opts.ColorMode = ctx.Formatter.ColorMode
	opts.Debug = ctx.Debug
	rc, err := runtime.New(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer rc.Close()

	chain, err := sink.FromConfig(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer chain.Close()

	src, err := connectivity.SourceFromConfig(cfg.Connectivity, cfg.Sync.Timeout)
	if err != nil {
		return err
	}

	deviceID, err := outbox.LoadDeviceID(deviceIDPath())
	if err != nil {
		return err
	}

	d := daemon.NewDaemon(rc.DB, daemon.Options{
		Config:   cfg,
		Sink:     chain,
		Source:   src,
		DeviceID: deviceID,
		Version:  Version,
	})
	d.SetDebug(ctx.Debug)

	logging.Info("starting daemon",
		logging.KeySink, chain.Name(),
		"connectivity", cfg.Connectivity.Mode,
		"device_id", deviceID)

	if err := d.Start(cmd.Context()); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return errors.NewUserError(err.Error(), "Stop it with 'driverhelper daemon stop'")
		}
		return err
	}
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	d := newDaemonManager()

	if !d.IsRunning() {
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]any{"status": "not_running"})
		}
		cliOut().Muted("Daemon is not running")
		return nil
	}

	pid := d.GetStatus().PID
	if err := d.Stop(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"status": "stopped", "pid": pid})
	}
	cliOut().Success(fmt.Sprintf("Daemon stopped (was PID: %d)", pid))
	return nil
}

func runDaemonDrain(cmd *cobra.Command, args []string) error {
	pid, err := newDaemonManager().RequestDrain()
	if errors.Is(err, daemon.ErrNotRunning) {
		return errors.NewUserError("daemon is not running", "Run 'driverhelper sync' to drain from the CLI")
	}
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"status": "requested", "pid": pid})
	}
	cliOut().Success(fmt.Sprintf("Drain requested (PID: %d)", pid))
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	d := newDaemonManager()
	status := d.GetStatus()

	var ctrl *connectivity.Status
	if status.Running {
		ctrl = daemonStatus(cmd)
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{
			"daemon":     status,
			"controller": ctrl,
		})
	}

	cli := cliOut()
	cli.Title("Driver Helper Daemon")
	if !status.Running {
		cli.Printf("  Status:    stopped\n")
		cli.Println("")
		cli.Muted("Start with: driverhelper daemon start")
		return nil
	}

	cli.Printf("  Status:    running\n")
	cli.Printf("  PID:       %d\n", status.PID)
	cli.Printf("  Uptime:    %s\n", status.Uptime)
	if status.HTTPAddr != "" {
		cli.Printf("  Status at: http://%s/status\n", status.HTTPAddr)
	}
	if ctrl != nil {
		cli.Printf("  State:     %s\n", ctrl.State)
		if !ctrl.LastSynced.IsZero() {
			cli.Printf("  Last sync: %s\n", ctrl.LastSynced.Local().Format("2006-01-02 15:04:05"))
		}
		if ctrl.LastError != "" {
			cli.Warning("Last drain failed: " + ctrl.LastError)
		}
	}
	return nil
}

func runDaemonLogs(cmd *cobra.Command, args []string) error {
	logPath := daemon.GetLogPath()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		ctx.Formatter.Println("No log file found.")
		ctx.Formatter.Printf("Log path: %s\n", logPath)
		return nil
	}

	if daemonLogsFlagFollow {
		c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return followLogs(c, logPath, ctx.Formatter.Writer)
	}

	lines, err := tailFile(logPath, daemonLogsFlagTail)
	if err != nil {
		return err
	}
	for _, line := range lines {
		ctx.Formatter.Println(line)
	}
	return nil
}

// tailFile reads the last n lines from a file.
func tailFile(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// followLogs copies lines appended to path into w until ctx is done.
// The directory is watched so a rotated log is picked up.
func followLogs(ctx context.Context, path string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { file.Close() }()
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				file.Close()
				if file, err = os.Open(path); err != nil {
					return err
				}
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if _, err := io.Copy(w, file); err != nil {
					return err
				}
			}
		}
	}
}

func runDaemonInstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if mgr.IsInstalled() && !daemonInstallFlagForce {
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]any{"status": "already_installed"})
		}
		ctx.Formatter.Println("Service is already installed.")
		ctx.Formatter.Println("Use --force to reinstall.")
		return nil
	}

	if mgr.IsInstalled() {
		if err := mgr.Uninstall(); err != nil {
			return fmt.Errorf("failed to remove existing service: %w", err)
		}
	}

	if err := mgr.Install(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{
			"status": "installed",
			"unit":   mgr.UnitPath(),
		})
	}

	cli := cliOut()
	cli.Success("Service installed: " + mgr.UnitPath())
	cli.Println("")
	cli.Println("The daemon will now start automatically when you log in.")
	cli.Println("To remove: driverhelper daemon uninstall")
	return nil
}

func runDaemonUninstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if !mgr.IsInstalled() {
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]any{"status": "not_installed"})
		}
		ctx.Formatter.Println("Service is not installed.")
		return nil
	}

	if err := mgr.Uninstall(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"status": "uninstalled"})
	}
	cliOut().Success("Service uninstalled")
	return nil
}
