// Package errors provides the error taxonomy for driverhelper.
// It defines three categories: UserError (invalid input, nothing written),
// SystemError (local storage failures) and RecoverableError (sync transport
// failures that are retried on the next interval).
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrValidation       = errors.New("validation failed")
	ErrStorage          = errors.New("local storage failure")
	ErrSyncTransport    = errors.New("sync transport failure")
	ErrNoteNotFound     = errors.New("note not found")
	ErrReminderNotFound = errors.New("reminder not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrDiskFull         = errors.New("disk full")
	ErrNetworkOffline   = errors.New("network offline")
	ErrDaemonRunning    = errors.New("daemon already running")
	ErrDaemonStopped    = errors.New("daemon not running")
	ErrTimeout          = errors.New("operation timed out")
	ErrPermissionDenied = errors.New("permission denied")
	ErrCorrupted        = errors.New("database corrupted")
)

// UserError represents an error that the user can fix.
// Repositories return it before touching the database.
type UserError struct {
	Message    string // What happened
	Reason     string // Why it happened (optional)
	Suggestion string // How to fix it
	Field      string // The field/input that caused the error (optional)
	Value      string // The invalid value (optional)
	Cause      error  // Sentinel or underlying error (optional)
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Field != "" && e.Value != "" {
		msg = fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return msg
}

// Unwrap exposes ErrValidation and the cause, if any.
func (e *UserError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewUserErrorWithField creates a new UserError with field context.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// NewNotFound creates a UserError for a missing record wrapping a sentinel.
func NewNotFound(sentinel error, id int64) *UserError {
	return &UserError{
		Message: fmt.Sprintf("%s: %d", sentinel.Error(), id),
		Field:   "id",
		Cause:   sentinel,
	}
}

// SystemError represents a local storage failure that the user cannot
// directly fix. No partial state is left behind when one is returned.
type SystemError struct {
	Message string // What happened
	Cause   error  // The underlying error
	Op      string // The operation that failed (optional)
}

func (e *SystemError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	return e.Message
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// Is makes every SystemError match ErrStorage.
func (e *SystemError) Is(target error) bool {
	return target == ErrStorage
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
	}
}

// NewSystemErrorWithOp creates a new SystemError with operation context.
func NewSystemErrorWithOp(op, message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
		Op:      op,
	}
}

// RecoverableError represents a transient failure. The records involved
// stay pending and go out again on the next drain.
type RecoverableError struct {
	Message string // What happened
	Cause   error  // The underlying error
}

func (e *RecoverableError) Error() string {
	return e.Message
}

func (e *RecoverableError) Unwrap() error {
	return e.Cause
}

// NewSyncTransportError wraps a sink failure. The result matches both
// ErrSyncTransport and cause.
func NewSyncTransportError(sink string, cause error) *RecoverableError {
	return &RecoverableError{
		Message: fmt.Sprintf("sync via %s failed: %v", sink, cause),
		Cause:   fmt.Errorf("%w: %w", ErrSyncTransport, cause),
	}
}

// IsUserError checks if an error is a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsSystemError checks if an error is a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// IsRecoverableError checks if an error is a RecoverableError.
func IsRecoverableError(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}

// AsSystemError extracts a SystemError from an error chain.
func AsSystemError(err error) (*SystemError, bool) {
	var se *SystemError
	ok := errors.As(err, &se)
	return se, ok
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
