package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	ErrNoteNotFound:     "Use 'driverhelper note list' to see note ids.",
	ErrReminderNotFound: "Use 'driverhelper remind list' to see reminder ids.",
	ErrInvalidAmount:    "Amounts must be non-negative numbers like 500 or 12.50.",
	ErrInvalidKind:      "A transaction is either income or expense (use --expense).",
	ErrInvalidTimestamp: "Try formats like 'tomorrow 9am', 'yesterday', or '2024-01-01'.",
	ErrInvalidURL:       "Provide a valid URL starting with https:// (or http:// for localhost).",

	ErrDiskFull:         "Free up disk space and try again. Nothing was written.",
	ErrPermissionDenied: "Check file permissions in your data directory (~/.local/share/driverhelper/).",
	ErrSyncTransport:    "Changes stay queued locally and will sync on the next interval.",
	ErrNetworkOffline:   "You are offline. Changes will sync when you're back online.",
	ErrDaemonRunning:    "Use 'driverhelper daemon status' or 'driverhelper daemon stop'.",
	ErrDaemonStopped:    "Start it with 'driverhelper daemon start'.",
	ErrCorrupted:        "Back up the data directory, then run 'driverhelper reset --force --backup'.",
}

// GetSuggestion returns a suggestion for an error, if available.
// An explicit UserError suggestion wins over the table.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}

	return ""
}

// Chain returns the messages of err and every error it wraps, outermost first.
func Chain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}

// RootCause returns the innermost error in a single-wrap chain.
func RootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// FormatDebugError formats an error with its chain and category, for --debug.
func FormatDebugError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if chain := Chain(err); len(chain) > 1 {
		sb.WriteString("\nError chain:\n")
		for i, msg := range chain {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, msg))
		}
	}

	sb.WriteString(fmt.Sprintf("\nCategory: %s\n", Classify(err)))

	if suggestion := GetSuggestion(err); suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", suggestion))
	}

	return sb.String()
}
