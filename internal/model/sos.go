package model

import (
	"fmt"
	"time"
)

// SosStatus is the delivery state of an SOS alert.
type SosStatus string

const (
	SosPending SosStatus = "pending"
	SosSent    SosStatus = "sent"
)

// Defaults used when an SOS is raised without details.
const (
	DefaultSosMessage   = "Emergency SOS triggered"
	LocationUnavailable = "Location unavailable"
)

// SosLog records one emergency alert.
type SosLog struct {
	ID          int64     `json:"id"`
	TriggeredAt time.Time `json:"triggered_at"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Address     string    `json:"address,omitempty"`
	Message     string    `json:"message,omitempty"`
	Status      SosStatus `json:"status"`
	Synced      bool      `json:"synced"`
}

// SosInput holds the fields supplied when raising an SOS.
type SosInput struct {
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Address   string    `json:"address,omitempty"`
	Message   string    `json:"message,omitempty"`
	Status    SosStatus `json:"status"`
}

// HasLocation reports whether both coordinates are known.
func (in SosInput) HasLocation() bool {
	return in.Latitude != nil && in.Longitude != nil
}

// NewSosInput fills the address and message the way the SOS button does.
func NewSosInput(lat, lng *float64, message string) SosInput {
	in := SosInput{Latitude: lat, Longitude: lng, Message: message, Status: SosSent}
	if in.HasLocation() {
		in.Address = fmt.Sprintf("Lat %.5f, Lng %.5f", *lat, *lng)
	} else {
		in.Address = LocationUnavailable
	}
	if in.Message == "" {
		in.Message = DefaultSosMessage
	}
	return in
}
