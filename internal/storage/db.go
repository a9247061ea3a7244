// Package storage provides the local SQLite store for driverhelper.
// Every entity write goes through WithTx together with its sync_queue
// append so the outbox never diverges from the entity tables.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/logging"
)

const (
	// AppName is the application name used for data directories.
	AppName = "driverhelper"

	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
	path string

	minFree uint64
	now     func() time.Time

	hookMu  sync.RWMutex
	refresh []RefreshFunc

	// beforeCommit runs inside WithTx just before COMMIT. Tests use it to
	// simulate a crash between the entity write and the commit.
	beforeCommit func(tx *sql.Tx) error
}

// RefreshFunc is called after every committed entity write.
type RefreshFunc func(ctx context.Context) error

// Options configures the database connection.
type Options struct {
	// Path is the database file path. Empty string uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
	// MinFreeSpace is checked before each write transaction. Zero disables the check.
	MinFreeSpace uint64
	// Clock overrides time.Now for timestamps.
	Clock func() time.Time
}

// DefaultPath returns the default database path following XDG spec.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, AppName+".db")
}

// Open opens or creates a database and ensures the schema exists.
func Open(opts Options) (*DB, error) {
	path := opts.Path
	if opts.InMemory || path == "" {
		path = MemoryPath
	}

	dsn := MemoryPath
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, errors.NewSystemErrorWithOp("open", "failed to create database directory", err)
		}
		dsn = "file:" + path
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("open", "failed to open database", err)
	}

	// One connection serializes access and keeps an in-memory database alive.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, errors.NewSystemErrorWithOp("open", "failed to ping database", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, errors.NewSystemErrorWithOp("open", fmt.Sprintf("failed to apply %q", p), err)
		}
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	db := &DB{
		conn:    conn,
		path:    path,
		minFree: opts.MinFreeSpace,
		now:     clock,
	}

	if err := db.InitSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

// Close checkpoints the WAL and closes the connection.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	if d.path != MemoryPath {
		_, _ = d.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

// Path returns the database file path, or "" for in-memory databases.
func (d *DB) Path() string {
	if d.path == MemoryPath {
		return ""
	}
	return d.path
}

// SQL returns the underlying *sql.DB.
func (d *DB) SQL() *sql.DB {
	return d.conn
}

// Now returns the current time from the configured clock, in UTC.
func (d *DB) Now() time.Time {
	return d.now().UTC()
}

// OnCommit registers fn to run after each committed entity write.
func (d *DB) OnCommit(fn RefreshFunc) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.refresh = append(d.refresh, fn)
}

// notifyCommit runs the refresh hooks. Hook errors do not undo the write.
func (d *DB) notifyCommit(ctx context.Context) {
	d.hookMu.RLock()
	hooks := append([]RefreshFunc(nil), d.refresh...)
	d.hookMu.RUnlock()

	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			logging.WarnContext(ctx, "refresh after commit failed", logging.KeyError, err)
		}
	}
}

// WithTx runs fn in a transaction. It commits when fn returns nil and
// rolls back on error or panic.
func (d *DB) WithTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	if d.minFree > 0 && d.path != MemoryPath {
		if err := CheckDiskSpace(filepath.Dir(d.path), d.minFree); err != nil {
			return err
		}
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, "failed to begin transaction", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if d.beforeCommit != nil {
		if err := d.beforeCommit(tx); err != nil {
			_ = tx.Rollback()
			return storageErr(op, "transaction aborted", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr(op, "failed to commit", err)
	}

	return nil
}

// write runs fn through WithTx and fires the refresh hooks once it commits.
func (d *DB) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if err := d.WithTx(ctx, op, fn); err != nil {
		return err
	}
	d.notifyCommit(ctx)
	return nil
}

// storageErr wraps engine errors as StorageError, passing typed errors through.
func storageErr(op, msg string, err error) error {
	if errors.IsUserError(err) || errors.IsSystemError(err) {
		return err
	}
	if isDiskFullError(err) {
		return errors.NewSystemErrorWithOp(op, "disk full", errors.ErrDiskFull)
	}
	return errors.NewSystemErrorWithOp(op, msg, err)
}
