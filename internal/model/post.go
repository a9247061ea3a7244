package model

import "time"

// CommunityPost is a message shared with other drivers.
type CommunityPost struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Reactions int       `json:"reactions"`
	Synced    bool      `json:"synced"`
}

// PostInput holds the fields supplied when posting.
type PostInput struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// DefaultAuthor is used when no profile name is set.
const DefaultAuthor = "Driver"
