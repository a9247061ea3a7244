package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/connectivity"
	apperrors "github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/outbox"
	"github.com/manav03panchal/driverhelper/internal/sink"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

// =============================================================================
// HealthChecker Tests
// =============================================================================

func TestHealthCheckerCheck(t *testing.T) {
	checker := NewHealthChecker("1.0.0")

	status := checker.Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.GreaterOrEqual(t, status.Goroutines, 1)
	assert.GreaterOrEqual(t, status.MemoryMB, 0.0)
	assert.False(t, status.LastCheck.IsZero())
}

func TestHealthCheckerPendingFunc(t *testing.T) {
	checker := NewHealthChecker("1.0.0")
	checker.SetPendingFunc(func(context.Context) int { return 5 })

	assert.Equal(t, 5, checker.Check(context.Background()).PendingRecords)
}

func TestHealthCheckerAddRemoveCheck(t *testing.T) {
	ctx := context.Background()
	checker := NewHealthChecker("1.0.0")

	checker.AddCheck("test", func(context.Context) error {
		return errors.New("test error")
	})
	assert.Equal(t, "unhealthy", checker.Check(ctx).Status)
	assert.False(t, checker.IsHealthy(ctx))

	checker.RemoveCheck("test")
	assert.Equal(t, "healthy", checker.Check(ctx).Status)
	assert.True(t, checker.IsHealthy(ctx))
}

func TestHealthCheckerJSON(t *testing.T) {
	checker := NewHealthChecker("1.0.0")

	data, err := checker.JSON(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "healthy"`)
	assert.Contains(t, string(data), "pending_records")
}

func TestHealthCheckerDetailedCheck(t *testing.T) {
	checker := NewHealthChecker("1.0.0")
	checker.AddCheck("zeta", func(context.Context) error { return nil })
	checker.AddCheck("alpha", func(context.Context) error { return errors.New("check failed") })

	details := checker.DetailedCheck(context.Background())
	assert.Equal(t, "unhealthy", details.Status)
	require.Len(t, details.Checks, 2)
	assert.Equal(t, "alpha", details.Checks[0].Name)
	assert.False(t, details.Checks[0].Healthy)
	assert.Equal(t, "check failed", details.Checks[0].Error)
	assert.Equal(t, "zeta", details.Checks[1].Name)
	assert.True(t, details.Checks[1].Healthy)
}

func TestHealthCheckerUptime(t *testing.T) {
	checker := NewHealthChecker("1.0.0")
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, checker.Uptime(), 10*time.Millisecond)
}

// =============================================================================
// Metrics Tests
// =============================================================================

func TestMetricsRecordDrain(t *testing.T) {
	m := NewMetrics()

	m.RecordDrain(outbox.Result{Succeeded: 3}, nil, 40*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.DrainsTotal)
	assert.Equal(t, int64(0), snap.DrainsFailedTotal)
	assert.Equal(t, int64(3), snap.RecordsSyncedTotal)
	assert.Equal(t, int64(40), snap.DrainLatencyMs)
	assert.NotNil(t, snap.LastDrainAt)
	assert.Empty(t, snap.LastError)
}

func TestMetricsRecordDrainFailure(t *testing.T) {
	m := NewMetrics()

	err := apperrors.NewSyncTransportError("webhook", errors.New("connection refused"))
	m.RecordDrain(outbox.Result{Failed: 2}, err, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.DrainsFailedTotal)
	assert.Equal(t, int64(2), snap.RecordsFailedTotal)
	assert.Equal(t, int64(1), snap.ErrorsTotal)
	assert.Equal(t, int64(1), snap.ErrorsByCategory["recoverable"])
	assert.Contains(t, snap.LastError, "connection refused")
}

func TestMetricsRecordPrune(t *testing.T) {
	m := NewMetrics()

	m.RecordPrune(4, nil)
	m.RecordPrune(0, errors.New("locked"))

	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap.PrunedTotal)
	assert.Equal(t, int64(1), snap.ErrorsByCategory["prune"])
}

func TestMetricsRecordError(t *testing.T) {
	m := NewMetrics()

	m.RecordError("sink", errors.New("timeout"))
	m.RecordError("sink", errors.New("timeout"))
	m.RecordError("db", errors.New("connection failed"))

	assert.Equal(t, int64(3), m.ErrorsTotal())
	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ErrorsByCategory["sink"])
	assert.Equal(t, int64(1), snap.ErrorsByCategory["db"])
}

func TestMetricsJSONAndReset(t *testing.T) {
	m := NewMetrics()
	m.RecordDrain(outbox.Result{Succeeded: 1}, nil, time.Millisecond)
	m.RecordError("test", errors.New("test"))

	data, err := m.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "records_synced_total")

	m.Reset()
	assert.Equal(t, int64(0), m.DrainsTotal())
	assert.Equal(t, int64(0), m.RecordsSynced())
	assert.Equal(t, int64(0), m.ErrorsTotal())
	snap := m.Snapshot()
	assert.Nil(t, snap.LastDrainAt)
	assert.Empty(t, snap.LastError)
}

type fixedDrainer struct {
	res outbox.Result
	err error
}

func (d fixedDrainer) Drain(context.Context) (outbox.Result, error) { return d.res, d.err }

func TestMetricsInstrument(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics()

	_, _ = m.Instrument(fixedDrainer{}).Drain(ctx)
	assert.Equal(t, int64(0), m.DrainsTotal(), "empty drains are not counted")

	res, err := m.Instrument(fixedDrainer{res: outbox.Result{Succeeded: 2}}).Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, int64(1), m.DrainsTotal())

	_, err = m.Instrument(fixedDrainer{err: errors.New("boom")}).Drain(ctx)
	assert.Error(t, err)
	assert.Equal(t, int64(2), m.DrainsTotal())
	assert.Equal(t, int64(1), m.ErrorsTotal())
}

// =============================================================================
// PID File Tests
// =============================================================================

func TestPIDFile(t *testing.T) {
	p := NewPIDFile(filepath.Join(t.TempDir(), "run", PIDFileName))

	assert.Zero(t, p.Owner())
	_, err := p.Signal(syscall.Signal(0))
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, p.Claim())
	assert.Equal(t, os.Getpid(), p.Owner())
	assert.ErrorIs(t, p.Claim(), ErrAlreadyRunning)

	pid, err := p.Signal(syscall.Signal(0))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, p.Release())
	assert.Zero(t, p.Owner())
	assert.NoError(t, p.Clear(), "clearing a missing file is fine")
}

func TestPIDFileStaleOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)
	p := NewPIDFile(path)

	t.Run("garbage", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0600))
		assert.Zero(t, p.Owner())
		require.NoError(t, p.Claim())
		assert.Equal(t, os.Getpid(), p.Owner())
	})

	t.Run("release_leaves_other_owner", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0600))
		assert.Zero(t, p.Owner(), "dead pid counts as no owner")
		require.NoError(t, p.Release())
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
	assert.False(t, processAlive(0))
	assert.False(t, processAlive(-1))
}

// =============================================================================
// Signal Handler Tests
// =============================================================================

func TestSignalHandlerWaitReturnsOnContext(t *testing.T) {
	h := NewSignalHandler()
	defer h.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, h.Wait(ctx, nil))
}

func TestSignalHandlerRoutesDrainSignals(t *testing.T) {
	if len(drainSignals) == 0 {
		t.Skip("no drain signal on this platform")
	}
	h := NewSignalHandler()
	defer h.Cleanup()

	h.signals <- drainSignals[0]
	h.signals <- drainSignals[0]
	h.signals <- syscall.SIGTERM

	drains := 0
	sig := h.Wait(context.Background(), func() { drains++ })
	assert.Equal(t, syscall.SIGTERM, sig)
	assert.Equal(t, 2, drains)
}

// =============================================================================
// Service Tests
// =============================================================================

func TestForwardedEnv(t *testing.T) {
	vars := forwardedEnv([]string{
		"PATH=/usr/bin",
		"DRIVERHELPER_SYNC_INTERVAL=30s",
		"CLOUD_SYNC_WEBHOOK_URL=https://example.com/hook",
		"SUPABASE_SYNC_TABLE=sync",
		"BROKEN",
	})

	require.Len(t, vars, 3)
	assert.Equal(t, "CLOUD_SYNC_WEBHOOK_URL", vars[0].Key)
	assert.Equal(t, "DRIVERHELPER_SYNC_INTERVAL", vars[1].Key)
	assert.Equal(t, "30s", vars[1].Value)
	assert.Equal(t, "SUPABASE_SYNC_TABLE", vars[2].Key)
}

func TestServiceRender(t *testing.T) {
	t.Setenv("DRIVERHELPER_CONNECTIVITY_MODE", "probe")
	m := &ServiceManager{executablePath: "/usr/local/bin/driverhelper", goos: "linux"}

	unit, err := m.render(systemdTemplate)
	require.NoError(t, err)
	assert.Contains(t, string(unit), "ExecStart=/usr/local/bin/driverhelper daemon start --foreground")
	assert.Contains(t, string(unit), `Environment="DRIVERHELPER_CONNECTIVITY_MODE=probe"`)

	plist, err := m.render(launchdTemplate)
	require.NoError(t, err)
	assert.Contains(t, string(plist), "<string>com.driverhelper.daemon</string>")
	assert.Contains(t, string(plist), "<key>DRIVERHELPER_CONNECTIVITY_MODE</key>")
}

func TestServiceInstallUninstall(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var ran []string
	m := &ServiceManager{
		executablePath: "/usr/local/bin/driverhelper",
		goos:           "darwin",
		run: func(name string, args ...string) ([]byte, error) {
			ran = append(ran, name+" "+strings.Join(args, " "))
			return nil, nil
		},
	}

	assert.False(t, m.IsInstalled())
	require.NoError(t, m.Install())
	assert.True(t, m.IsInstalled())
	assert.Equal(t, filepath.Join(home, "Library", "LaunchAgents", "com.driverhelper.daemon.plist"), m.UnitPath())

	require.NoError(t, m.Uninstall())
	assert.False(t, m.IsInstalled())
	require.Len(t, ran, 2)
	assert.True(t, strings.HasPrefix(ran[0], "launchctl load"))
	assert.True(t, strings.HasPrefix(ran[1], "launchctl unload"))
}

func TestServiceInstallCommandFailure(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	m := &ServiceManager{
		executablePath: "/bin/driverhelper",
		goos:           "darwin",
		run: func(string, ...string) ([]byte, error) {
			return []byte("permission denied"), errors.New("exit status 1")
		},
	}

	err := m.Install()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestServiceUnsupportedOS(t *testing.T) {
	m := &ServiceManager{goos: "plan9"}
	assert.Error(t, m.Install())
	assert.Error(t, m.Uninstall())
	assert.False(t, m.IsInstalled())
}

// =============================================================================
// Daemon Tests
// =============================================================================

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{48 * time.Hour, "2d"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.in))
	}
}

func TestReadLastLogError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startup.log")
	assert.Empty(t, readLastLogError(path))

	require.NoError(t, os.WriteFile(path, []byte("starting\nError: cannot access database\nbye\n"), 0600))
	assert.Equal(t, "Error: cannot access database", readLastLogError(path))
}

type countingSink struct {
	sent chan model.Batch
}

func (s *countingSink) Name() string { return "counting" }

func (s *countingSink) Send(_ context.Context, b model.Batch) (model.Ack, error) {
	s.sent <- b
	return b.AcceptAll(), nil
}

func newTestDaemon(t *testing.T, snk sink.Sink) (*Daemon, *storage.DB) {
	t.Helper()

	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultRuntimeConfig()
	cfg.Sync.Interval = time.Hour
	cfg.Daemon.HTTPAddr = "127.0.0.1:0"
	cfg.Daemon.KillTimeout = time.Second

	dir := t.TempDir()
	d := NewDaemon(db, Options{
		Config:    cfg,
		Sink:      snk,
		Source:    connectivity.StaticSource(true),
		DeviceID:  "device-1",
		Version:   "test",
		PIDPath:   filepath.Join(dir, PIDFileName),
		StatePath: filepath.Join(dir, "daemon.json"),
	})
	return d, db
}

func TestDaemonRun(t *testing.T) {
	snk := &countingSink{sent: make(chan model.Batch, 4)}
	d, db := newTestDaemon(t, snk)

	_, err := storage.NewNoteRepo(db).Create(context.Background(), model.NoteInput{Content: "oil change"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	select {
	case <-d.Ready():
	case err := <-done:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}

	// Starting online drains what was queued before the daemon came up.
	select {
	case b := <-snk.sent:
		require.Len(t, b.Items, 1)
		assert.Equal(t, "device-1", b.DeviceID)
		assert.Equal(t, model.EntityNotes, b.Items[0].Entity)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch sent")
	}
	d.Controller().Wait()

	status := d.GetStatus()
	assert.True(t, status.Running)
	assert.Equal(t, os.Getpid(), status.PID)
	assert.Equal(t, d.Addr(), status.HTTPAddr)

	st, err := FetchStatus(ctx, d.Addr())
	require.NoError(t, err)
	assert.Equal(t, connectivity.StateIdle, st.State)
	assert.False(t, st.LastSynced.IsZero())
	assert.Equal(t, int64(1), d.Metrics().RecordsSynced())

	if len(drainSignals) > 0 {
		_, err = storage.NewNoteRepo(db).Create(context.Background(), model.NoteInput{Content: "tyre pressure"})
		require.NoError(t, err)

		pid, err := d.RequestDrain()
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), pid)

		select {
		case b := <-snk.sent:
			require.Len(t, b.Items, 1)
		case <-time.After(5 * time.Second):
			t.Fatal("drain signal did not drain")
		}
		d.Controller().Wait()
	}

	assert.ErrorIs(t, d.Start(ctx), ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	assert.False(t, d.IsRunning())
	assert.False(t, d.GetStatus().Running)
	_, err = os.Stat(d.statePath)
	assert.True(t, os.IsNotExist(err))
}

func TestDaemonStopWhenNotRunning(t *testing.T) {
	d, _ := newTestDaemon(t, sink.AcceptAll{})
	assert.ErrorIs(t, d.Stop(), ErrNotRunning)
}
