package model

import "time"

// Reminder is a titled alert at a point in time.
type Reminder struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	RemindAt  time.Time `json:"remind_at"`
	Completed bool      `json:"completed"`
	Synced    bool      `json:"synced"`
}

// ReminderInput holds the fields supplied when adding a reminder.
type ReminderInput struct {
	Title    string    `json:"title"`
	RemindAt time.Time `json:"remind_at"`
}

// IsDue returns true if the reminder time has passed and it is not done.
func (r *Reminder) IsDue(now time.Time) bool {
	return !r.Completed && !now.Before(r.RemindAt)
}
