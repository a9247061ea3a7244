package output

import (
	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// CreatedResponse reports a new local record.
type CreatedResponse struct {
	Status string       `json:"status"`
	Entity model.Entity `json:"entity"`
	ID     int64        `json:"id"`
}

// ListResponse wraps a list with its count.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse never emits a null items array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// SyncStatusResponse combines local outbox counts with the daemon's
// controller status. Controller is nil when no daemon answered.
type SyncStatusResponse struct {
	Outbox     model.OutboxStats    `json:"outbox"`
	Sink       string               `json:"sink"`
	Controller *connectivity.Status `json:"controller,omitempty"`
	Indicator  string               `json:"indicator,omitempty"`
}

// DrainResponse reports a one-shot drain.
type DrainResponse struct {
	Status    string `json:"status"`
	Sink      string `json:"sink"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	DryRun    bool   `json:"dry_run,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintCreated outputs a created record.
func (j *JSONFormatter) PrintCreated(entity model.Entity, id int64) error {
	return j.JSON(CreatedResponse{Status: "created", Entity: entity, ID: id})
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(errMsg, category, suggestion string) error {
	return j.JSON(ErrorResponse{
		Status:     "error",
		Error:      errMsg,
		Category:   category,
		Suggestion: suggestion,
	})
}
