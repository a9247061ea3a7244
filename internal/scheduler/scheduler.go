// Package scheduler runs housekeeping jobs for the daemon.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/driverhelper/internal/logging"
)

// DefaultPruneSchedule runs retention once a day.
const DefaultPruneSchedule = "@daily"

// Pruner deletes synced outbox rows created before cutoff.
type Pruner interface {
	PruneSynced(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler manages scheduled tasks using cron.
type Scheduler struct {
	cron      *cron.Cron
	pruner    Pruner
	retention time.Duration
	now       func() time.Time

	mu          sync.Mutex
	lastPrune   time.Time
	prunedTotal int64
	onPrune     func(n int64, err error)
}

// NewScheduler creates a scheduler. A retention of zero disables pruning.
// Specs may be five or six fields, or a descriptor such as @daily.
func NewScheduler(pruner Pruner, retention time.Duration) *Scheduler {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:      cron.New(cron.WithParser(parser)),
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
	}
}

// OnPrune registers a callback run after every prune.
func (s *Scheduler) OnPrune(fn func(n int64, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPrune = fn
}

// Start adds the prune job on spec and starts the cron runner.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		spec = DefaultPruneSchedule
	}

	if s.retention > 0 {
		if _, err := s.cron.AddFunc(spec, func() {
			_, _ = s.Prune(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to add prune job: %w", err)
		}
	} else {
		logging.DebugLog("outbox retention disabled")
	}

	s.cron.Start()
	logging.DebugLog("scheduler started", "schedule", spec, "retention", s.retention.String())
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	logging.DebugLog("scheduler stopped")
}

// Prune deletes synced rows older than the retention window. Pending rows
// are never touched.
func (s *Scheduler) Prune(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.PruneSynced(ctx, cutoff)

	s.mu.Lock()
	s.lastPrune = s.now()
	if err == nil {
		s.prunedTotal += n
	}
	cb := s.onPrune
	s.mu.Unlock()

	if err != nil {
		logging.Warn("outbox prune failed", logging.KeyOperation, "prune", logging.KeyError, err)
	} else if n > 0 {
		logging.Info("pruned synced outbox records", logging.KeyOperation, "prune", logging.KeyCount, n)
	}
	if cb != nil {
		cb(n, err)
	}
	return n, err
}

// LastPrune returns when Prune last ran.
func (s *Scheduler) LastPrune() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrune
}

// PrunedTotal returns how many rows were pruned since start.
func (s *Scheduler) PrunedTotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prunedTotal
}

// AddJob adds a custom job to the scheduler.
func (s *Scheduler) AddJob(spec string, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, job)
}

// RemoveJob removes a job from the scheduler.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.cron.Remove(id)
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextRun returns the next scheduled run time for any job.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
