package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
)

const insertOutboxSQL = `INSERT INTO sync_queue (entity, entity_id, operation, payload, status, created_at)
	VALUES (?, ?, ?, ?, 'pending', ?)`

const selectOutboxSQL = `SELECT id, entity, entity_id, operation, payload, status, created_at FROM sync_queue`

// appendOutbox records one change inside the caller's transaction.
func (d *DB) appendOutbox(ctx context.Context, tx *sql.Tx, entity model.Entity, entityID *int64, op model.Operation, payload any) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, errors.NewSystemErrorWithOp("outbox.append", "failed to encode payload", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertOutboxSQL)
	if err != nil {
		return 0, storageErr("outbox.append", "failed to prepare outbox insert", err)
	}
	defer stmt.Close()

	var eid sql.NullInt64
	if entityID != nil {
		eid = sql.NullInt64{Int64: *entityID, Valid: true}
	}

	res, err := stmt.ExecContext(ctx, string(entity), eid, string(op), string(data), formatTime(d.Now()))
	if err != nil {
		return 0, storageErr("outbox.append", "failed to append outbox record", err)
	}
	return res.LastInsertId()
}

// OutboxRepo reads and acknowledges sync_queue records.
type OutboxRepo struct {
	db *DB
}

// NewOutboxRepo creates a new outbox repository.
func NewOutboxRepo(db *DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

// ListPending returns every pending record in creation order. Ids are
// assigned on insert and never reused, so the clock plays no part.
func (r *OutboxRepo) ListPending(ctx context.Context) ([]model.OutboxRecord, error) {
	return r.query(ctx, selectOutboxSQL+` WHERE status = 'pending' ORDER BY id ASC`)
}

// List returns records newest first. Synced records are included only when
// all is true. A limit of zero means no limit.
func (r *OutboxRepo) List(ctx context.Context, all bool, limit int) ([]model.OutboxRecord, error) {
	q := selectOutboxSQL
	if !all {
		q += ` WHERE status = 'pending'`
	}
	q += ` ORDER BY id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		return r.query(ctx, q, limit)
	}
	return r.query(ctx, q)
}

// MarkSynced flips the given pending records to synced in one transaction
// and returns how many changed. Unknown or already synced ids are ignored.
func (r *OutboxRepo) MarkSynced(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	changed := 0
	err := r.db.write(ctx, "outbox.mark_synced", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE sync_queue SET status = 'synced' WHERE id = ? AND status = 'pending'`)
		if err != nil {
			return storageErr("outbox.mark_synced", "failed to prepare update", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			res, err := stmt.ExecContext(ctx, id)
			if err != nil {
				return storageErr("outbox.mark_synced", "failed to mark record", err)
			}
			n, _ := res.RowsAffected()
			changed += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// Stats counts records by status.
func (r *OutboxRepo) Stats(ctx context.Context) (model.OutboxStats, error) {
	var stats model.OutboxStats

	rows, err := r.db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return stats, storageErr("outbox.stats", "failed to count records", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, storageErr("outbox.stats", "failed to scan counts", err)
		}
		switch model.OutboxStatus(status) {
		case model.StatusPending:
			stats.Pending = n
		case model.StatusSynced:
			stats.Synced = n
		}
	}
	if err := rows.Err(); err != nil {
		return stats, storageErr("outbox.stats", "row iteration failed", err)
	}

	if stats.Pending > 0 {
		var oldest string
		err := r.db.conn.QueryRowContext(ctx,
			`SELECT MIN(created_at) FROM sync_queue WHERE status = 'pending'`).Scan(&oldest)
		if err != nil {
			return stats, storageErr("outbox.stats", "failed to read oldest pending", err)
		}
		stats.OldestPending = parseTime(oldest)
	}

	return stats, nil
}

// PruneSynced deletes synced records created before cutoff. Pending
// records are never removed.
func (r *OutboxRepo) PruneSynced(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := r.db.WithTx(ctx, "outbox.prune", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM sync_queue WHERE status = 'synced' AND created_at < ?`, formatTime(cutoff))
		if err != nil {
			return storageErr("outbox.prune", "failed to prune", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}

func (r *OutboxRepo) query(ctx context.Context, q string, args ...any) ([]model.OutboxRecord, error) {
	rows, err := r.db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("outbox.list", "failed to list outbox", err)
	}
	defer rows.Close()

	var records []model.OutboxRecord
	for rows.Next() {
		var (
			rec       model.OutboxRecord
			entity    string
			entityID  sql.NullInt64
			op        string
			payload   string
			status    string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &entity, &entityID, &op, &payload, &status, &createdAt); err != nil {
			return nil, storageErr("outbox.list", "failed to scan outbox record", err)
		}
		rec.Entity = model.Entity(entity)
		if entityID.Valid {
			id := entityID.Int64
			rec.EntityID = &id
		}
		rec.Operation = model.Operation(op)
		rec.Payload = json.RawMessage(payload)
		rec.Status = model.OutboxStatus(status)
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("outbox.list", "row iteration failed", err)
	}
	return records, nil
}
