package model

import "time"

// HealthMetric is one recorded measurement such as sleep hours or water intake.
type HealthMetric struct {
	ID         int64     `json:"id"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	Notes      string    `json:"notes,omitempty"`
	Synced     bool      `json:"synced"`
}

// HealthInput holds the fields supplied when recording a metric.
type HealthInput struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	Notes  string  `json:"notes,omitempty"`
}
