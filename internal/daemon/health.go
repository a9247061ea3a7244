package daemon

import (
	"context"
	"encoding/json"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the current health state of the daemon.
type HealthStatus struct {
	Status         string    `json:"status"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	MemoryMB       float64   `json:"memory_mb"`
	PendingRecords int       `json:"pending_records"`
	LastCheck      time.Time `json:"last_check"`
	Version        string    `json:"version,omitempty"`
	Goroutines     int       `json:"goroutines"`
}

// CheckFunc reports a problem with one subsystem.
type CheckFunc func(ctx context.Context) error

// HealthChecker provides health status for the daemon.
type HealthChecker struct {
	mu           sync.RWMutex
	startTime    time.Time
	lastCheck    time.Time
	pending      func(ctx context.Context) int
	version      string
	customChecks map[string]CheckFunc
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startTime:    time.Now(),
		version:      version,
		customChecks: make(map[string]CheckFunc),
	}
}

// SetPendingFunc sets how the pending outbox count is read.
func (h *HealthChecker) SetPendingFunc(fn func(ctx context.Context) int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = fn
}

// Check performs a health check and returns the status.
func (h *HealthChecker) Check(ctx context.Context) *HealthStatus {
	h.mu.Lock()
	h.lastCheck = time.Now()
	last := h.lastCheck
	pendingFn := h.pending
	h.mu.Unlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	pending := 0
	if pendingFn != nil {
		pending = pendingFn(ctx)
	}

	return &HealthStatus{
		Status:         h.determineStatus(ctx),
		UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
		MemoryMB:       float64(memStats.Alloc) / 1024 / 1024,
		PendingRecords: pending,
		LastCheck:      last,
		Version:        h.version,
		Goroutines:     runtime.NumGoroutine(),
	}
}

func (h *HealthChecker) determineStatus(ctx context.Context) string {
	for _, r := range h.runChecks(ctx) {
		if !r.Healthy {
			return "unhealthy"
		}
	}
	return "healthy"
}

// AddCheck adds a named health check.
func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.customChecks[name] = check
}

// RemoveCheck removes a named health check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.customChecks, name)
}

// JSON returns the health status as JSON.
func (h *HealthChecker) JSON(ctx context.Context) ([]byte, error) {
	return json.MarshalIndent(h.Check(ctx), "", "  ")
}

// Uptime returns how long the daemon has been running.
func (h *HealthChecker) Uptime() time.Duration {
	return time.Since(h.startTime)
}

// IsHealthy returns true if every check passes.
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.determineStatus(ctx) == "healthy"
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// DetailedHealth adds per-check results.
type DetailedHealth struct {
	HealthStatus
	Checks []CheckResult `json:"checks"`
}

// DetailedCheck performs a health check including each named check.
func (h *HealthChecker) DetailedCheck(ctx context.Context) *DetailedHealth {
	return &DetailedHealth{
		HealthStatus: *h.Check(ctx),
		Checks:       h.runChecks(ctx),
	}
}

// runChecks runs checks outside the lock, sorted by name.
func (h *HealthChecker) runChecks(ctx context.Context) []CheckResult {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.customChecks))
	for name, fn := range h.customChecks {
		checks[name] = fn
	}
	h.mu.RUnlock()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		r := CheckResult{Name: name, Healthy: true}
		if err := checks[name](ctx); err != nil {
			r.Healthy = false
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}
