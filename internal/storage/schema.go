package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// tables lists every table in creation order. Reset drops them in reverse.
var tables = []struct {
	name string
	ddl  string
}{
	{"earnings", `CREATE TABLE IF NOT EXISTS earnings (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		type      TEXT    NOT NULL CHECK (type IN ('income', 'expense')),
		amount    REAL    NOT NULL CHECK (amount >= 0),
		category  TEXT    NOT NULL DEFAULT '',
		notes     TEXT,
		date      TEXT    NOT NULL,
		synced    INTEGER NOT NULL DEFAULT 0
	)`},
	{"reminders", `CREATE TABLE IF NOT EXISTS reminders (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		title     TEXT    NOT NULL,
		remind_at TEXT    NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		synced    INTEGER NOT NULL DEFAULT 0
	)`},
	{"notes", `CREATE TABLE IF NOT EXISTS notes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT,
		content    TEXT    NOT NULL,
		tags       TEXT,
		created_at TEXT    NOT NULL,
		updated_at TEXT    NOT NULL,
		synced     INTEGER NOT NULL DEFAULT 0
	)`},
	{"health_metrics", `CREATE TABLE IF NOT EXISTS health_metrics (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		metric      TEXT    NOT NULL,
		value       REAL    NOT NULL,
		unit        TEXT,
		recorded_at TEXT    NOT NULL,
		notes       TEXT,
		synced      INTEGER NOT NULL DEFAULT 0
	)`},
	{"community_posts", `CREATE TABLE IF NOT EXISTS community_posts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		author     TEXT    NOT NULL,
		body       TEXT    NOT NULL,
		created_at TEXT    NOT NULL,
		reactions  INTEGER NOT NULL DEFAULT 0,
		synced     INTEGER NOT NULL DEFAULT 0
	)`},
	{"sos_logs", `CREATE TABLE IF NOT EXISTS sos_logs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		triggered_at TEXT    NOT NULL,
		latitude     REAL,
		longitude    REAL,
		address      TEXT,
		message      TEXT,
		status       TEXT    NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'sent')),
		synced       INTEGER NOT NULL DEFAULT 0
	)`},
	{"nearby_drivers", `CREATE TABLE IF NOT EXISTS nearby_drivers (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		vehicle     TEXT,
		distance_km REAL,
		phone       TEXT
	)`},
	{"user_profile", `CREATE TABLE IF NOT EXISTS user_profile (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		name       TEXT    NOT NULL,
		created_at TEXT    NOT NULL
	)`},
	{outboxTable, `CREATE TABLE IF NOT EXISTS sync_queue (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		entity     TEXT    NOT NULL,
		entity_id  INTEGER,
		operation  TEXT    NOT NULL CHECK (operation IN ('insert', 'update', 'delete')),
		payload    TEXT    NOT NULL,
		status     TEXT    NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'synced')),
		created_at TEXT    NOT NULL
	)`},
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_sync_queue_pending ON sync_queue(status, id)`,
	`CREATE INDEX IF NOT EXISTS idx_earnings_date ON earnings(date)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_remind_at ON reminders(remind_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at)`,
}

// InitSchema creates every table and index if missing. It is idempotent.
func (d *DB) InitSchema(ctx context.Context) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("init_schema", "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, t.ddl); err != nil {
			return storageErr("init_schema", fmt.Sprintf("failed to create %s", t.name), err)
		}
	}
	for _, idx := range indexes {
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return storageErr("init_schema", "failed to create index", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("init_schema", "failed to commit schema", err)
	}
	return nil
}

// outboxTable is emptied rather than dropped on Reset. Outbox ids are
// idempotency keys downstream and must not repeat for a device.
const outboxTable = "sync_queue"

// Reset drops every table and recreates the schema. All local data,
// including unsynced outbox records, is lost. The outbox id sequence
// carries on from where it was.
func (d *DB) Reset(ctx context.Context) error {
	err := d.WithTx(ctx, "reset", func(tx *sql.Tx) error {
		for i := len(tables) - 1; i >= 0; i-- {
			stmt := "DROP TABLE IF EXISTS " + tables[i].name
			if tables[i].name == outboxTable {
				stmt = "DELETE FROM " + outboxTable
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return storageErr("reset", fmt.Sprintf("failed to clear %s", tables[i].name), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := d.InitSchema(ctx); err != nil {
		return err
	}
	d.notifyCommit(ctx)
	return nil
}

// TableNames returns the managed table names in creation order.
func TableNames() []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.name
	}
	return names
}
