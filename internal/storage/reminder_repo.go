package storage

import (
	"context"
	"database/sql"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/validate"
)

// ReminderRepo provides operations for Reminder entities.
type ReminderRepo struct {
	db *DB
}

// NewReminderRepo creates a new reminder repository.
func NewReminderRepo(db *DB) *ReminderRepo {
	return &ReminderRepo{db: db}
}

// Create adds a reminder and queues it for sync.
func (r *ReminderRepo) Create(ctx context.Context, in model.ReminderInput) (int64, error) {
	if err := validate.Reminder(in); err != nil {
		return 0, err
	}
	in.Title = validate.SanitizeName(in.Title)
	in.RemindAt = in.RemindAt.UTC()

	var id int64
	err := r.db.write(ctx, "reminder.create", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO reminders (title, remind_at, completed, synced) VALUES (?, ?, 0, 0)`,
			in.Title, formatTime(in.RemindAt))
		if err != nil {
			return storageErr("reminder.create", "failed to insert reminder", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storageErr("reminder.create", "failed to read id", err)
		}

		_, err = r.db.appendOutbox(ctx, tx, model.EntityReminders, nil, model.OpInsert, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetCompleted toggles completion. An unknown id is a validation error.
func (r *ReminderRepo) SetCompleted(ctx context.Context, id int64, completed bool) error {
	return r.db.write(ctx, "reminder.set_completed", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE reminders SET completed = ?, synced = 0 WHERE id = ?`, completed, id)
		if err != nil {
			return storageErr("reminder.set_completed", "failed to update reminder", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewNotFound(errors.ErrReminderNotFound, id)
		}

		payload := struct {
			ID        int64 `json:"id"`
			Completed bool  `json:"completed"`
		}{id, completed}
		_, err = r.db.appendOutbox(ctx, tx, model.EntityReminders, &id, model.OpUpdate, payload)
		return err
	})
}

// Get retrieves a reminder by id.
func (r *ReminderRepo) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	reminders, err := r.query(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(reminders) == 0 {
		return nil, errors.NewNotFound(errors.ErrReminderNotFound, id)
	}
	return &reminders[0], nil
}

// List returns every reminder, soonest first.
func (r *ReminderRepo) List(ctx context.Context) ([]model.Reminder, error) {
	return r.query(ctx, `ORDER BY remind_at ASC, id ASC`)
}

func (r *ReminderRepo) query(ctx context.Context, clause string, args ...any) ([]model.Reminder, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, title, remind_at, completed, synced FROM reminders `+clause, args...)
	if err != nil {
		return nil, storageErr("reminder.list", "failed to list reminders", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		var (
			rem      model.Reminder
			remindAt string
		)
		if err := rows.Scan(&rem.ID, &rem.Title, &remindAt, &rem.Completed, &rem.Synced); err != nil {
			return nil, storageErr("reminder.list", "failed to scan reminder", err)
		}
		rem.RemindAt = parseTime(remindAt)
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("reminder.list", "row iteration failed", err)
	}
	return reminders, nil
}
