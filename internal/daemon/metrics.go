package daemon

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/outbox"
)

// Metrics tracks daemon operational metrics.
type Metrics struct {
	drainsTotal   atomic.Int64
	drainsFailed  atomic.Int64
	recordsSynced atomic.Int64
	recordsFailed atomic.Int64
	prunedTotal   atomic.Int64
	errorsTotal   atomic.Int64

	mu             sync.RWMutex
	drainLatencyMs int64
	lastDrainAt    time.Time
	lastError      string
	lastErrorAt    time.Time

	errorsByCategory map[string]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		errorsByCategory: make(map[string]int64),
	}
}

// MetricsSnapshot represents a point-in-time view of metrics.
type MetricsSnapshot struct {
	DrainsTotal        int64            `json:"drains_total"`
	DrainsFailedTotal  int64            `json:"drains_failed_total"`
	RecordsSyncedTotal int64            `json:"records_synced_total"`
	RecordsFailedTotal int64            `json:"records_failed_total"`
	PrunedTotal        int64            `json:"pruned_total"`
	ErrorsTotal        int64            `json:"errors_total"`
	DrainLatencyMs     int64            `json:"drain_latency_ms"`
	LastDrainAt        *time.Time       `json:"last_drain_at,omitempty"`
	LastError          string           `json:"last_error,omitempty"`
	LastErrorAt        *time.Time       `json:"last_error_at,omitempty"`
	ErrorsByCategory   map[string]int64 `json:"errors_by_category,omitempty"`
}

// Snapshot returns a copy of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		DrainsTotal:        m.drainsTotal.Load(),
		DrainsFailedTotal:  m.drainsFailed.Load(),
		RecordsSyncedTotal: m.recordsSynced.Load(),
		RecordsFailedTotal: m.recordsFailed.Load(),
		PrunedTotal:        m.prunedTotal.Load(),
		ErrorsTotal:        m.errorsTotal.Load(),
		DrainLatencyMs:     m.drainLatencyMs,
		LastError:          m.lastError,
		ErrorsByCategory:   make(map[string]int64, len(m.errorsByCategory)),
	}

	if !m.lastDrainAt.IsZero() {
		t := m.lastDrainAt
		snap.LastDrainAt = &t
	}
	if !m.lastErrorAt.IsZero() {
		t := m.lastErrorAt
		snap.LastErrorAt = &t
	}
	for k, v := range m.errorsByCategory {
		snap.ErrorsByCategory[k] = v
	}

	return snap
}

// JSON returns metrics as JSON.
func (m *Metrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m.Snapshot(), "", "  ")
}

// RecordDrain records the outcome of one drain.
func (m *Metrics) RecordDrain(res outbox.Result, err error, latency time.Duration) {
	m.drainsTotal.Add(1)
	m.recordsSynced.Add(int64(res.Succeeded))
	m.recordsFailed.Add(int64(res.Failed))

	m.mu.Lock()
	m.drainLatencyMs = latency.Milliseconds()
	m.lastDrainAt = time.Now()
	m.mu.Unlock()

	if err != nil {
		m.drainsFailed.Add(1)
		m.RecordError(errors.Classify(err).String(), err)
	}
}

// RecordPrune records a retention run.
func (m *Metrics) RecordPrune(n int64, err error) {
	if err != nil {
		m.RecordError("prune", err)
		return
	}
	m.prunedTotal.Add(n)
}

// RecordError records an error with category.
func (m *Metrics) RecordError(category string, err error) {
	m.errorsTotal.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastError = err.Error()
	m.lastErrorAt = time.Now()

	if category != "" {
		m.errorsByCategory[category]++
	}
}

// DrainsTotal returns the number of drains run.
func (m *Metrics) DrainsTotal() int64 {
	return m.drainsTotal.Load()
}

// RecordsSynced returns the total records acknowledged.
func (m *Metrics) RecordsSynced() int64 {
	return m.recordsSynced.Load()
}

// ErrorsTotal returns the total errors.
func (m *Metrics) ErrorsTotal() int64 {
	return m.errorsTotal.Load()
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.drainsTotal.Store(0)
	m.drainsFailed.Store(0)
	m.recordsSynced.Store(0)
	m.recordsFailed.Store(0)
	m.prunedTotal.Store(0)
	m.errorsTotal.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainLatencyMs = 0
	m.lastDrainAt = time.Time{}
	m.lastError = ""
	m.lastErrorAt = time.Time{}
	m.errorsByCategory = make(map[string]int64)
}

// Instrument wraps d so every drain is recorded.
func (m *Metrics) Instrument(d connectivity.Drainer) connectivity.Drainer {
	return &instrumentedDrainer{inner: d, metrics: m}
}

type instrumentedDrainer struct {
	inner   connectivity.Drainer
	metrics *Metrics
}

func (d *instrumentedDrainer) Drain(ctx context.Context) (outbox.Result, error) {
	start := time.Now()
	res, err := d.inner.Drain(ctx)
	if err == nil && res.Total() == 0 {
		return res, nil
	}
	d.metrics.RecordDrain(res, err, time.Since(start))
	return res, err
}
