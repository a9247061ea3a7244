// Package validate provides input validation helpers for driverhelper.
// Every repository write calls one of these before opening a transaction,
// so a failure here means nothing was written.
package validate

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
)

const (
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
	// MaxTitleLength is the maximum length for a note or reminder title.
	MaxTitleLength = 256
	// MaxNoteLength is the maximum length for note content and free-text notes.
	MaxNoteLength = 4096
	// MaxCategoryLength is the maximum length for a transaction category.
	MaxCategoryLength = 64
	// MaxNameLength is the maximum length for a profile or author name.
	MaxNameLength = 128
	// MaxPostLength is the maximum length for a community post.
	MaxPostLength = 1024
	// MaxAmount bounds transaction amounts to catch typos.
	MaxAmount = 1_000_000_000
)

// Transaction validates a new earnings entry.
func Transaction(in model.TransactionInput) error {
	if !in.Kind.IsValid() {
		return &errors.UserError{
			Message:    "Invalid transaction type",
			Field:      "type",
			Value:      string(in.Kind),
			Suggestion: "Use income or expense",
			Cause:      errors.ErrInvalidKind,
		}
	}
	if err := Amount(in.Amount); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Category) > MaxCategoryLength {
		return errors.NewUserErrorWithField("category", in.Category,
			"Category too long",
			"Categories must be 64 characters or fewer")
	}
	return Note(in.Notes)
}

// Amount validates a money amount.
func Amount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 || amount > MaxAmount {
		return &errors.UserError{
			Message:    "Amount must be a non-negative number",
			Field:      "amount",
			Value:      fmt.Sprintf("%g", amount),
			Suggestion: "Enter amounts like 500 or 12.50",
			Cause:      errors.ErrInvalidAmount,
		}
	}
	return nil
}

// Reminder validates a new reminder.
func Reminder(in model.ReminderInput) error {
	if err := NonEmpty("title", in.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return errors.NewUserError("Title too long", "Titles must be 256 characters or fewer")
	}
	return Timestamp("remind_at", in.RemindAt)
}

// Timestamp validates that t is set.
func Timestamp(field string, t time.Time) error {
	if t.IsZero() {
		return &errors.UserError{
			Message:    field + " is required",
			Field:      field,
			Suggestion: "Try 'tomorrow 9am' or '2024-01-01 18:00'",
			Cause:      errors.ErrInvalidTimestamp,
		}
	}
	return nil
}

// NoteInput validates a new note. Content is required after trimming.
func NoteInput(in model.NoteInput) error {
	if err := NoteContent(in.Content); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return errors.NewUserError("Title too long", "Titles must be 256 characters or fewer")
	}
	return nil
}

// NoteContent validates note content.
func NoteContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.NewUserErrorWithField("content", content,
			"Note content cannot be empty",
			"Write something, e.g. driverhelper note add \"Pick up toll receipt\"")
	}
	return Note(content)
}

// NotePatch validates a note edit. Only the provided fields are checked.
func NotePatch(p model.NotePatch) error {
	if p.Content != nil {
		if err := NoteContent(*p.Content); err != nil {
			return err
		}
	}
	if p.Title != nil && utf8.RuneCountInString(*p.Title) > MaxTitleLength {
		return errors.NewUserError("Title too long", "Titles must be 256 characters or fewer")
	}
	return nil
}

// Note validates free-text length.
func Note(note string) error {
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return errors.NewUserError(
			"Note too long",
			"Notes must be 4096 characters or fewer")
	}
	return nil
}

// Health validates a health metric.
func Health(in model.HealthInput) error {
	if err := NonEmpty("metric", in.Metric); err != nil {
		return err
	}
	if math.IsNaN(in.Value) || math.IsInf(in.Value, 0) {
		return errors.NewUserErrorWithField("value", fmt.Sprintf("%g", in.Value),
			"Value must be a number",
			"Enter a value like 7.5")
	}
	return Note(in.Notes)
}

// Post validates a community post.
func Post(in model.PostInput) error {
	if err := NonEmpty("body", in.Body); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Body) > MaxPostLength {
		return errors.NewUserError("Post too long", "Posts must be 1024 characters or fewer")
	}
	if utf8.RuneCountInString(in.Author) > MaxNameLength {
		return errors.NewUserError("Author name too long", "Names must be 128 characters or fewer")
	}
	return nil
}

// Sos validates an SOS log. Coordinates are optional but must be in range.
func Sos(in model.SosInput) error {
	if in.Latitude != nil && (math.IsNaN(*in.Latitude) || *in.Latitude < -90 || *in.Latitude > 90) {
		return errors.NewUserErrorWithField("latitude", fmt.Sprintf("%g", *in.Latitude),
			"Latitude out of range",
			"Latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (math.IsNaN(*in.Longitude) || *in.Longitude < -180 || *in.Longitude > 180) {
		return errors.NewUserErrorWithField("longitude", fmt.Sprintf("%g", *in.Longitude),
			"Longitude out of range",
			"Longitude must be between -180 and 180")
	}
	switch in.Status {
	case "", model.SosPending, model.SosSent:
	default:
		return errors.NewUserErrorWithField("status", string(in.Status),
			"Invalid SOS status",
			"Use pending or sent")
	}
	return Note(in.Message)
}

// ProfileName validates a display name. It expects a trimmed value.
func ProfileName(name string) error {
	if err := NonEmpty("name", name); err != nil {
		return err
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return errors.NewUserErrorWithField("name", name,
			"Name too long",
			"Names must be 128 characters or fewer")
	}
	return nil
}

// URL validates a sink or probe URL.
func URL(rawURL string) error {
	if rawURL == "" {
		return errors.NewUserError("URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return errors.NewUserError("URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &errors.UserError{
			Message: "Invalid URL format", Field: "url", Value: rawURL,
			Suggestion: "Provide a valid URL starting with https://",
			Cause:      errors.ErrInvalidURL,
		}
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return &errors.UserError{
			Message: "Invalid URL scheme", Field: "url", Value: rawURL,
			Suggestion: "URLs must use https:// (or http:// for localhost)",
			Cause:      errors.ErrInvalidURL,
		}
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return &errors.UserError{
			Message: "Invalid URL: missing hostname", Field: "url", Value: rawURL,
			Suggestion: "Provide a valid URL like https://example.com/api/sync",
			Cause:      errors.ErrInvalidURL,
		}
	}

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
	if parsed.Scheme == "http" && !isLocalhost {
		return &errors.UserError{
			Message: "HTTP not allowed for external URLs", Field: "url", Value: rawURL,
			Suggestion: "Use https:// so sync payloads are encrypted in transit",
			Cause:      errors.ErrInvalidURL,
		}
	}

	return nil
}

// NonEmpty validates that a string is not blank.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUserErrorWithField(field, value,
			field+" cannot be empty",
			"Provide a value for "+field)
	}
	return nil
}
