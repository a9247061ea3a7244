package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/outbox"
	"github.com/manav03panchal/driverhelper/internal/scheduler"
	"github.com/manav03panchal/driverhelper/internal/sink"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

// Options configures a daemon run.
type Options struct {
	Config   *config.RuntimeConfig
	Sink     sink.Sink
	Source   connectivity.Source
	DeviceID string
	Version  string

	// PIDPath and StatePath default to the XDG state directory.
	PIDPath   string
	StatePath string
}

// Daemon runs the sync controller in the background.
type Daemon struct {
	db        *storage.DB
	opts      Options
	pidFile   *PIDFile
	statePath string
	metrics   *Metrics
	health    *HealthChecker
	ready     chan struct{}
	debug     bool

	ctrl   *connectivity.Controller
	sched  *scheduler.Scheduler
	server *StatusServer
}

// Status represents the daemon status.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Uptime    string    `json:"uptime,omitempty"`
	HTTPAddr  string    `json:"http_addr,omitempty"`
}

// NewDaemon creates a daemon manager for db.
func NewDaemon(db *storage.DB, opts Options) *Daemon {
	if opts.Config == nil {
		opts.Config = config.Global
	}
	if opts.Sink == nil {
		opts.Sink = sink.AcceptAll{}
	}
	if opts.Source == nil {
		opts.Source = connectivity.StaticSource(true)
	}
	statePath := opts.StatePath
	if statePath == "" {
		statePath = getStatePath()
	}
	return &Daemon{
		db:        db,
		opts:      opts,
		pidFile:   NewPIDFile(opts.PIDPath),
		statePath: statePath,
		metrics:   NewMetrics(),
		health:    NewHealthChecker(opts.Version),
		ready:     make(chan struct{}),
	}
}

// SetDebug enables debug mode.
func (d *Daemon) SetDebug(debug bool) {
	d.debug = debug
}

// Metrics returns the daemon's counters.
func (d *Daemon) Metrics() *Metrics {
	return d.metrics
}

// Ready is closed once Start has every component running.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Controller returns the sync controller. It is nil before Ready.
func (d *Daemon) Controller() *connectivity.Controller {
	return d.ctrl
}

// Addr returns the status server address, or "" when it is disabled.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.Addr()
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() *Status {
	status := &Status{}

	pid := d.pidFile.Owner()
	if pid > 0 {
		status.Running = true
		status.PID = pid

		if state, err := d.readState(); err == nil {
			status.StartedAt = state.StartedAt
			status.Uptime = formatUptime(time.Since(state.StartedAt))
			status.HTTPAddr = state.HTTPAddr
		}
	}

	return status
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	return d.pidFile.Owner() > 0
}

// Start runs the daemon in the foreground until ctx is done or a
// termination signal arrives.
func (d *Daemon) Start(ctx context.Context) error {
	cfg := d.opts.Config

	if err := d.pidFile.Claim(); err != nil {
		return err
	}
	defer d.releasePID()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outboxRepo := storage.NewOutboxRepo(d.db)
	drainer := outbox.NewDrainer(outboxRepo, d.opts.Sink, d.opts.DeviceID)
	d.ctrl = connectivity.New(d.metrics.Instrument(drainer), connectivity.WithInterval(cfg.Sync.Interval))

	d.sched = scheduler.NewScheduler(outboxRepo, cfg.Sync.Retention)
	d.sched.OnPrune(d.metrics.RecordPrune)
	if err := d.sched.Start(cfg.Daemon.PruneSchedule); err != nil {
		return err
	}
	defer d.sched.Stop()

	d.health.SetPendingFunc(func(ctx context.Context) int {
		stats, err := outboxRepo.Stats(ctx)
		if err != nil {
			return -1
		}
		return stats.Pending
	})
	d.health.AddCheck("database", func(ctx context.Context) error {
		status := storage.CheckDatabaseIntegrity(ctx, d.db)
		if !status.Healthy {
			return fmt.Errorf("%s", strings.Join(status.Errors, "; "))
		}
		return nil
	})

	if cfg.Daemon.HTTPAddr != "" {
		d.server = NewStatusServer(cfg.Daemon.HTTPAddr, d.ctrl, d.health, d.metrics)
		if err := d.server.Start(); err != nil {
			return err
		}
		defer func() {
			if err := d.server.Stop(); err != nil {
				logging.Warn("status server stop failed", logging.KeyError, err)
			}
		}()
	}

	if err := d.writeState(&DaemonState{
		PID:       os.Getpid(),
		StartedAt: time.Now(),
		HTTPAddr:  d.Addr(),
	}); err != nil {
		return err
	}
	defer d.removeState()

	if err := connectivity.Run(runCtx, d.ctrl, d.opts.Source); err != nil {
		return err
	}
	defer d.shutdownController(cfg.Daemon.KillTimeout)

	sigHandler := NewSignalHandler()
	defer sigHandler.Cleanup()

	logging.Info("daemon started",
		"pid", os.Getpid(),
		logging.KeySink, d.opts.Sink.Name(),
		logging.KeyState, string(d.ctrl.State()),
		"http_addr", d.Addr())
	close(d.ready)

	onDrain := func() {
		logging.Info("drain requested by signal", logging.KeyState, string(d.ctrl.State()))
		d.ctrl.RequestDrain()
	}
	if sig := sigHandler.Wait(runCtx, onDrain); sig != nil {
		logging.Info("received signal", "signal", sig.String())
	}
	return nil
}

// shutdownController stops the timer and gives a running drain up to
// timeout to finish.
func (d *Daemon) shutdownController(timeout time.Duration) {
	d.ctrl.Stop()

	done := make(chan struct{})
	go func() {
		d.ctrl.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logging.Warn("drain still running at shutdown", logging.KeyDuration, timeout.String())
	}
	logging.Info("daemon stopped", "synced_total", d.metrics.RecordsSynced())
}

// StartBackground starts the daemon in a detached process.
func (d *Daemon) StartBackground() (int, error) {
	if d.IsRunning() {
		return d.pidFile.Owner(), ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"daemon", "start", "--foreground"}
	if d.debug {
		args = append(args, "--debug")
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil

	// The child writes its own rotated log. Output printed before that is
	// set up goes to the startup log.
	logPath := GetStartupLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err == nil {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err == nil {
			defer logFile.Close()
			cmd.Stdout = logFile
			cmd.Stderr = logFile
		}
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}

	time.Sleep(d.opts.Config.Daemon.StartupWait)

	if d.pidFile.Owner() == 0 {
		if errMsg := readLastLogError(logPath); errMsg != "" {
			return 0, fmt.Errorf("daemon failed to start: %s", errMsg)
		}
		return 0, fmt.Errorf("daemon failed to start (check logs: %s)", logPath)
	}

	return cmd.Process.Pid, nil
}

// readLastLogError returns the last error-looking line in the log tail.
func readLastLogError(logPath string) string {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	start := max(len(lines)-10, 0)

	for i := len(lines) - 1; i >= start; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.Contains(strings.ToLower(line), "error") ||
			strings.Contains(line, "cannot access database") ||
			strings.Contains(line, "failed to") {
			return line
		}
	}
	return ""
}

// Stop interrupts the running daemon and kills it if it is still alive
// after the kill timeout.
func (d *Daemon) Stop() error {
	pid, err := d.pidFile.Signal(os.Interrupt)
	if errors.Is(err, ErrNotRunning) {
		return err
	}
	if err != nil {
		if proc, ferr := os.FindProcess(pid); ferr == nil {
			if kerr := proc.Kill(); kerr != nil {
				return fmt.Errorf("failed to stop daemon: %w", kerr)
			}
		}
	}

	// The daemon is usually not our child, so poll instead of Wait.
	deadline := time.Now().Add(d.opts.Config.Daemon.KillTimeout)
	for processAlive(pid) && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if processAlive(pid) {
		if proc, ferr := os.FindProcess(pid); ferr == nil {
			_ = proc.Kill()
		}
	}

	if err := d.pidFile.Clear(); err != nil {
		logging.Warn("failed to remove pid file", logging.KeyError, err, "path", d.pidFile.Path())
	}
	d.removeState()
	return nil
}

// RequestDrain asks the running daemon to drain now. It returns the
// daemon's pid.
func (d *Daemon) RequestDrain() (int, error) {
	if len(drainSignals) == 0 {
		return 0, fmt.Errorf("drain requests are not supported on this platform")
	}
	return d.pidFile.Signal(drainSignals[0])
}

// DaemonState is written while the daemon runs so other commands can
// find it.
type DaemonState struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	HTTPAddr  string    `json:"http_addr,omitempty"`
}

func getStatePath() string {
	return filepath.Join(xdg.StateHome, AppName, "daemon.json")
}

func (d *Daemon) writeState(state *DaemonState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return storage.SafeWrite(d.statePath, data, 0600)
}

func (d *Daemon) readState() (*DaemonState, error) {
	data, err := os.ReadFile(d.statePath)
	if err != nil {
		return nil, err
	}

	var state DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (d *Daemon) removeState() {
	if err := os.Remove(d.statePath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove daemon state file", logging.KeyError, err, "path", d.statePath)
	}
}

func (d *Daemon) releasePID() {
	if err := d.pidFile.Release(); err != nil {
		logging.Warn("failed to remove pid file", logging.KeyError, err, "path", d.pidFile.Path())
	}
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
