package model

import "time"

// Note is a free-text note with optional title and tags.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Synced    bool      `json:"synced"`
}

// NoteInput holds the fields supplied when adding a note.
type NoteInput struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Tags    string `json:"tags,omitempty"`
}

// NotePatch holds the fields to change. Nil fields are left alone.
type NotePatch struct {
	Title   *string
	Content *string
	Tags    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}

// Changes returns the changed fields keyed by column name.
func (p NotePatch) Changes() map[string]any {
	changes := make(map[string]any, 3)
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Content != nil {
		changes["content"] = *p.Content
	}
	if p.Tags != nil {
		changes["tags"] = *p.Tags
	}
	return changes
}

// TagList returns the note tags as a slice.
func (n *Note) TagList() []string {
	return SplitTags(n.Tags)
}
