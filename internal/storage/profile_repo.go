package storage

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/validate"
)

// ProfileRepo manages the singleton user profile.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new profile repository.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// SaveName upserts the profile name. The first save queues an insert,
// later saves queue an update against row 1.
func (r *ProfileRepo) SaveName(ctx context.Context, name string) error {
	name = validate.SanitizeName(name)
	if err := validate.ProfileName(name); err != nil {
		return err
	}

	return r.db.write(ctx, "profile.save", func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM user_profile WHERE id = ?`, model.ProfileID).Scan(&existing)
		exists := err == nil
		if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
			return storageErr("profile.save", "failed to read profile", err)
		}

		now := formatTime(r.db.Now())
		var (
			entityID *int64
			op       = model.OpInsert
		)
		if exists {
			_, err = tx.ExecContext(ctx,
				`UPDATE user_profile SET name = ?, created_at = ? WHERE id = ?`, name, now, model.ProfileID)
			id := model.ProfileID
			entityID = &id
			op = model.OpUpdate
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO user_profile (id, name, created_at) VALUES (?, ?, ?)`, model.ProfileID, name, now)
		}
		if err != nil {
			return storageErr("profile.save", "failed to save profile", err)
		}

		payload := struct {
			Name string `json:"name"`
		}{name}
		_, err = r.db.appendOutbox(ctx, tx, model.EntityUserProfile, entityID, op, payload)
		return err
	})
}

// Get returns the profile, or nil if no name was saved yet.
func (r *ProfileRepo) Get(ctx context.Context) (*model.UserProfile, error) {
	var (
		p         model.UserProfile
		createdAt string
	)
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM user_profile WHERE id = ?`, model.ProfileID).
		Scan(&p.ID, &p.Name, &createdAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("profile.get", "failed to read profile", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}
