package model

// NearbyDriver is a driver shown on the dashboard. Rows arrive from outside
// the app, so they are never queued for sync.
type NearbyDriver struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Vehicle    string   `json:"vehicle,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Phone      string   `json:"phone,omitempty"`
}
