package storage

import (
	"context"
	"database/sql"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/validate"
)

// SosRepo provides operations for SOS logs.
type SosRepo struct {
	db *DB
}

// NewSosRepo creates a new SOS log repository.
func NewSosRepo(db *DB) *SosRepo {
	return &SosRepo{db: db}
}

// Create records an SOS alert and returns its id. Status defaults to pending.
func (r *SosRepo) Create(ctx context.Context, in model.SosInput) (int64, error) {
	if err := validate.Sos(in); err != nil {
		return 0, err
	}
	if in.Status == "" {
		in.Status = model.SosPending
	}

	var id int64
	err := r.db.write(ctx, "sos.create", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sos_logs (triggered_at, latitude, longitude, address, message, status, synced) VALUES (?, ?, ?, ?, ?, ?, 0)`,
			formatTime(r.db.Now()), nullFloat(in.Latitude), nullFloat(in.Longitude),
			nullString(in.Address), nullString(in.Message), string(in.Status))
		if err != nil {
			return storageErr("sos.create", "failed to insert sos log", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storageErr("sos.create", "failed to read id", err)
		}

		payload := struct {
			ID int64 `json:"id"`
			model.SosInput
		}{id, in}
		_, err = r.db.appendOutbox(ctx, tx, model.EntitySosLogs, &id, model.OpInsert, payload)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns every SOS log, newest first.
func (r *SosRepo) List(ctx context.Context) ([]model.SosLog, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, triggered_at, latitude, longitude, address, message, status, synced FROM sos_logs ORDER BY triggered_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("sos.list", "failed to list sos logs", err)
	}
	defer rows.Close()

	var logs []model.SosLog
	for rows.Next() {
		var (
			l                model.SosLog
			triggeredAt      string
			lat, lng         sql.NullFloat64
			address, message sql.NullString
			status           string
		)
		if err := rows.Scan(&l.ID, &triggeredAt, &lat, &lng, &address, &message, &status, &l.Synced); err != nil {
			return nil, storageErr("sos.list", "failed to scan sos log", err)
		}
		l.TriggeredAt = parseTime(triggeredAt)
		l.Latitude = floatPtr(lat)
		l.Longitude = floatPtr(lng)
		l.Address = address.String
		l.Message = message.String
		l.Status = model.SosStatus(status)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sos.list", "row iteration failed", err)
	}
	return logs, nil
}
