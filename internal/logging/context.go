package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey int

const (
	drainIDKey contextKey = iota
)

// NewDrainID returns a short correlation id for one drain run.
func NewDrainID() string {
	return uuid.NewString()[:8]
}

// WithDrainID returns a new context carrying the drain id.
func WithDrainID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, drainIDKey, id)
}

// DrainIDFromContext extracts the drain id, or "" if none is set.
func DrainIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(drainIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns the global logger annotated with the drain id
// carried by ctx, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := Logger()
	if id := DrainIDFromContext(ctx); id != "" {
		logger = logger.With(KeyDrainID, id)
	}
	return logger
}
