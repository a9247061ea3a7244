package model

import "time"

// ProfileID is the only row id user_profile may hold.
const ProfileID int64 = 1

// UserProfile is the singleton local user.
type UserProfile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
