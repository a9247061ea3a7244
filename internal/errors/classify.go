package errors

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Category tells the CLI how to present a failure and the daemon how to
// count it.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates invalid input. Nothing was written.
	CategoryUser
	// CategorySystem indicates a local storage failure. The write was rolled back.
	CategorySystem
	// CategoryRecoverable indicates a sync failure. Records stay pending.
	CategoryRecoverable
)

func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// sentinelCategories is consulted in order for errors that carry no typed
// wrapper.
var sentinelCategories = []struct {
	sentinel error
	category Category
}{
	{ErrValidation, CategoryUser},
	{ErrNoteNotFound, CategoryUser},
	{ErrReminderNotFound, CategoryUser},
	{ErrInvalidAmount, CategoryUser},
	{ErrInvalidKind, CategoryUser},
	{ErrInvalidTimestamp, CategoryUser},
	{ErrInvalidURL, CategoryUser},
	{ErrDaemonRunning, CategoryUser},
	{ErrDaemonStopped, CategoryUser},

	{ErrDiskFull, CategorySystem},
	{ErrStorage, CategorySystem},
	{ErrPermissionDenied, CategorySystem},
	{ErrCorrupted, CategorySystem},

	{ErrSyncTransport, CategoryRecoverable},
	{ErrNetworkOffline, CategoryRecoverable},
	{ErrTimeout, CategoryRecoverable},
	{context.DeadlineExceeded, CategoryRecoverable},
}

// Classify determines the category of an error. Typed errors win, then
// the sentinel table, then OS and network error values.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case IsUserError(err):
		return CategoryUser
	case IsSystemError(err):
		return CategorySystem
	case IsRecoverableError(err):
		return CategoryRecoverable
	}

	for _, sc := range sentinelCategories {
		if errors.Is(err, sc.sentinel) {
			return sc.category
		}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EACCES, syscall.EPERM, syscall.EIO, syscall.EROFS:
			// The database file or its directory is unusable.
			return CategorySystem
		case syscall.EAGAIN, syscall.EINTR, syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return CategoryRecoverable
		}
	}

	// Only the sinks and the probe dial out.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryRecoverable
	}

	return CategoryUnknown
}

// FormatByCategory renders err for the CLI. Sync failures say the local
// changes are safe.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch Classify(err) {
	case CategoryUser:
		if suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg

	case CategorySystem:
		msg = "Storage error: " + msg
		if suggestion != "" {
			return msg + "\n\n" + suggestion
		}
		return msg

	case CategoryRecoverable:
		return msg + "\nLocal changes are kept and go out on the next sync."

	default:
		return msg
	}
}
