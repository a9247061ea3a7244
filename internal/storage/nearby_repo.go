package storage

import (
	"context"
	"database/sql"

	"github.com/manav03panchal/driverhelper/internal/model"
)

// NearbyRepo reads nearby drivers. The table is filled from outside the
// app and has no write path here.
type NearbyRepo struct {
	db *DB
}

// NewNearbyRepo creates a new nearby driver repository.
func NewNearbyRepo(db *DB) *NearbyRepo {
	return &NearbyRepo{db: db}
}

// List returns nearby drivers, closest first. Unknown distances sort last.
func (r *NearbyRepo) List(ctx context.Context) ([]model.NearbyDriver, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, name, vehicle, distance_km, phone FROM nearby_drivers
		 ORDER BY distance_km IS NULL, distance_km ASC, id ASC`)
	if err != nil {
		return nil, storageErr("nearby.list", "failed to list nearby drivers", err)
	}
	defer rows.Close()

	var drivers []model.NearbyDriver
	for rows.Next() {
		var (
			d              model.NearbyDriver
			vehicle, phone sql.NullString
			distance       sql.NullFloat64
		)
		if err := rows.Scan(&d.ID, &d.Name, &vehicle, &distance, &phone); err != nil {
			return nil, storageErr("nearby.list", "failed to scan nearby driver", err)
		}
		d.Vehicle = vehicle.String
		d.DistanceKm = floatPtr(distance)
		d.Phone = phone.String
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("nearby.list", "row iteration failed", err)
	}
	return drivers, nil
}
