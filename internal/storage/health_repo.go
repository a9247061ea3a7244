package storage

import (
	"context"
	"database/sql"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/validate"
)

// HealthRepo provides operations for health metrics.
type HealthRepo struct {
	db *DB
}

// NewHealthRepo creates a new health metric repository.
func NewHealthRepo(db *DB) *HealthRepo {
	return &HealthRepo{db: db}
}

// Create records a metric at the current time.
func (r *HealthRepo) Create(ctx context.Context, in model.HealthInput) (int64, error) {
	if err := validate.Health(in); err != nil {
		return 0, err
	}
	in.Metric = validate.SanitizeName(in.Metric)

	var id int64
	err := r.db.write(ctx, "health.create", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO health_metrics (metric, value, unit, recorded_at, notes, synced) VALUES (?, ?, ?, ?, ?, 0)`,
			in.Metric, in.Value, nullString(in.Unit), formatTime(r.db.Now()), nullString(in.Notes))
		if err != nil {
			return storageErr("health.create", "failed to insert metric", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storageErr("health.create", "failed to read id", err)
		}

		_, err = r.db.appendOutbox(ctx, tx, model.EntityHealthMetrics, nil, model.OpInsert, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns every metric, newest first.
func (r *HealthRepo) List(ctx context.Context) ([]model.HealthMetric, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, metric, value, unit, recorded_at, notes, synced FROM health_metrics ORDER BY recorded_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("health.list", "failed to list metrics", err)
	}
	defer rows.Close()

	var metrics []model.HealthMetric
	for rows.Next() {
		var (
			m           model.HealthMetric
			unit, notes sql.NullString
			recordedAt  string
		)
		if err := rows.Scan(&m.ID, &m.Metric, &m.Value, &unit, &recordedAt, &notes, &m.Synced); err != nil {
			return nil, storageErr("health.list", "failed to scan metric", err)
		}
		m.Unit = unit.String
		m.Notes = notes.String
		m.RecordedAt = parseTime(recordedAt)
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("health.list", "row iteration failed", err)
	}
	return metrics, nil
}
