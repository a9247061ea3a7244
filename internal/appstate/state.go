// Package appstate keeps an in-memory copy of the local store for
// read-your-writes views. It is refreshed after every committed write.
package appstate

import (
	"context"
	"sync"
	"time"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

// Snapshot is everything the views need. It is never mutated after
// being published.
type Snapshot struct {
	Transactions []model.Transaction   `json:"transactions"`
	Reminders    []model.Reminder      `json:"reminders"`
	Notes        []model.Note          `json:"notes"`
	Health       []model.HealthMetric  `json:"health_metrics"`
	Posts        []model.CommunityPost `json:"community_posts"`
	SosLogs      []model.SosLog        `json:"sos_logs"`
	Nearby       []model.NearbyDriver  `json:"nearby_drivers"`
	Profile      *model.UserProfile    `json:"profile,omitempty"`
	Outbox       model.OutboxStats     `json:"outbox"`
	LoadedAt     time.Time             `json:"loaded_at"`
}

// Repos groups the repositories the state reads from.
type Repos struct {
	Transactions *storage.TransactionRepo
	Reminders    *storage.ReminderRepo
	Notes        *storage.NoteRepo
	Health       *storage.HealthRepo
	Posts        *storage.PostRepo
	Sos          *storage.SosRepo
	Profile      *storage.ProfileRepo
	Nearby       *storage.NearbyRepo
	Outbox       *storage.OutboxRepo
}

// NewRepos creates every repository over db.
func NewRepos(db *storage.DB) Repos {
	return Repos{
		Transactions: storage.NewTransactionRepo(db),
		Reminders:    storage.NewReminderRepo(db),
		Notes:        storage.NewNoteRepo(db),
		Health:       storage.NewHealthRepo(db),
		Posts:        storage.NewPostRepo(db),
		Sos:          storage.NewSosRepo(db),
		Profile:      storage.NewProfileRepo(db),
		Nearby:       storage.NewNearbyRepo(db),
		Outbox:       storage.NewOutboxRepo(db),
	}
}

// State holds the latest snapshot.
type State struct {
	repos Repos
	now   func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

// New creates an empty state. Call Refresh to load it.
func New(repos Repos) *State {
	return &State{repos: repos, now: time.Now}
}

// Refresh reloads every table. The snapshot is replaced only when every
// read succeeds, so readers never see a mix of old and new data.
func (s *State) Refresh(ctx context.Context) error {
	var (
		next Snapshot
		err  error
	)
	if next.Transactions, err = s.repos.Transactions.List(ctx); err != nil {
		return err
	}
	if next.Reminders, err = s.repos.Reminders.List(ctx); err != nil {
		return err
	}
	if next.Notes, err = s.repos.Notes.List(ctx); err != nil {
		return err
	}
	if next.Health, err = s.repos.Health.List(ctx); err != nil {
		return err
	}
	if next.Posts, err = s.repos.Posts.List(ctx); err != nil {
		return err
	}
	if next.SosLogs, err = s.repos.Sos.List(ctx); err != nil {
		return err
	}
	if next.Nearby, err = s.repos.Nearby.List(ctx); err != nil {
		return err
	}
	if next.Profile, err = s.repos.Profile.Get(ctx); err != nil {
		return err
	}
	if next.Outbox, err = s.repos.Outbox.Stats(ctx); err != nil {
		return err
	}
	next.LoadedAt = s.now()

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	logging.LoggerFromContext(ctx).Debug("state refreshed",
		logging.KeyCount, len(next.Transactions)+len(next.Notes)+len(next.Reminders),
		"pending", next.Outbox.Pending,
	)
	return nil
}

// Snapshot returns the latest loaded snapshot.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// DailySummary totals the transactions dated on the same calendar day as now.
func (s *State) DailySummary(now time.Time) model.DailySummary {
	return model.Summarize(now, s.Snapshot().Transactions)
}

// Pending is the number of unsynced outbox records at the last refresh.
func (s *State) Pending() int {
	return s.Snapshot().Outbox.Pending
}

// DueReminders returns incomplete reminders due at or before now.
func (s *State) DueReminders(now time.Time) []model.Reminder {
	var due []model.Reminder
	for _, r := range s.Snapshot().Reminders {
		if r.IsDue(now) {
			due = append(due, r)
		}
	}
	return due
}
