package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// UserError Tests
// =============================================================================

func TestNewUserError(t *testing.T) {
	err := NewUserError("content is required", "pass the note text")
	assert.Equal(t, "content is required", err.Message)
	assert.Equal(t, "pass the note text", err.Suggestion)
}

func TestUserErrorError(t *testing.T) {
	t.Run("without_field", func(t *testing.T) {
		err := NewUserError("invalid input", "")
		assert.Equal(t, "invalid input", err.Error())
	})

	t.Run("with_field", func(t *testing.T) {
		err := NewUserErrorWithField("amount", "-5", "amount must be non-negative", "")
		assert.Equal(t, "amount must be non-negative: '-5'", err.Error())
	})
}

func TestUserErrorMatchesValidation(t *testing.T) {
	err := NewUserError("bad", "")
	assert.ErrorIs(t, err, ErrValidation)

	wrapped := fmt.Errorf("create note: %w", err)
	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.True(t, IsUserError(wrapped))
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound(ErrNoteNotFound, 42)
	assert.Equal(t, "note not found: 42", err.Error())
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, CategoryUser, Classify(err))
}

// =============================================================================
// SystemError Tests
// =============================================================================

func TestSystemErrorError(t *testing.T) {
	t.Run("without_op", func(t *testing.T) {
		err := NewSystemError("database unavailable", nil)
		assert.Equal(t, "database unavailable", err.Error())
	})

	t.Run("with_op", func(t *testing.T) {
		err := NewSystemErrorWithOp("note.create", "commit failed", nil)
		assert.Equal(t, "commit failed during note.create", err.Error())
	})
}

func TestSystemErrorMatchesStorage(t *testing.T) {
	cause := errors.New("sqlite: disk I/O error")
	err := NewSystemErrorWithOp("txn.create", "write failed", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)

	se, ok := AsSystemError(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, "txn.create", se.Op)
}

// =============================================================================
// RecoverableError Tests
// =============================================================================

func TestNewSyncTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewSyncTransportError("webhook", cause)

	assert.ErrorIs(t, err, ErrSyncTransport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sync via webhook failed: connection refused", err.Error())
	assert.Equal(t, CategoryRecoverable, Classify(err))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))

	base := errors.New("base")
	assert.Equal(t, "loading notes: base", Wrap(base, "loading notes").Error())
	assert.Equal(t, "drain 7: base", Wrapf(base, "drain %d", 7).Error())
	assert.ErrorIs(t, Wrap(base, "x"), base)
}

// =============================================================================
// Classification Tests
// =============================================================================

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		expected string
	}{
		{CategoryUnknown, "unknown"},
		{CategoryUser, "user"},
		{CategorySystem, "system"},
		{CategoryRecoverable, "recoverable"},
		{Category(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.category.String())
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil", nil, CategoryUnknown},
		{"user", NewUserError("bad", ""), CategoryUser},
		{"system", NewSystemError("io", nil), CategorySystem},
		{"transport", NewSyncTransportError("postgres", errors.New("x")), CategoryRecoverable},
		{"disk_full_sentinel", ErrDiskFull, CategorySystem},
		{"enospc", syscall.ENOSPC, CategorySystem},
		{"econnrefused", syscall.ECONNREFUSED, CategoryRecoverable},
		{"offline", fmt.Errorf("drain: %w", ErrNetworkOffline), CategoryRecoverable},
		{"note_not_found", NewNotFound(ErrNoteNotFound, 3), CategoryUser},
		{"bare_validation", fmt.Errorf("parse: %w", ErrInvalidAmount), CategoryUser},
		{"daemon_stopped", ErrDaemonStopped, CategoryUser},
		{"corrupted", fmt.Errorf("open: %w", ErrCorrupted), CategorySystem},
		{"eacces", syscall.EACCES, CategorySystem},
		{"deadline", context.DeadlineExceeded, CategoryRecoverable},
		{"net_op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route")}, CategoryRecoverable},
		{"plain", errors.New("plain"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestFormatByCategory(t *testing.T) {
	assert.Equal(t, "", FormatByCategory(nil))

	userMsg := FormatByCategory(NewUserError("content is required", "pass the note text"))
	assert.Contains(t, userMsg, "Try: pass the note text")

	sysMsg := FormatByCategory(NewSystemError("write failed", ErrDiskFull))
	assert.Contains(t, sysMsg, "Storage error: write failed")
	assert.Contains(t, sysMsg, "Free up disk space")

	recMsg := FormatByCategory(NewSyncTransportError("webhook", errors.New("503")))
	assert.Contains(t, recMsg, "sync via webhook failed: 503")
	assert.Contains(t, recMsg, "go out on the next sync")
}

// =============================================================================
// Suggestion Tests
// =============================================================================

func TestGetSuggestion(t *testing.T) {
	assert.Equal(t, "", GetSuggestion(nil))
	assert.Equal(t, "", GetSuggestion(errors.New("unknown")))

	assert.Contains(t, GetSuggestion(NewNotFound(ErrNoteNotFound, 3)), "note list")

	explicit := &UserError{Message: "bad", Suggestion: "do this", Cause: ErrNoteNotFound}
	assert.Equal(t, "do this", GetSuggestion(explicit))
}

func TestChainAndRootCause(t *testing.T) {
	root := errors.New("root")
	mid := fmt.Errorf("mid: %w", root)
	top := fmt.Errorf("top: %w", mid)

	assert.Equal(t, []string{"top: mid: root", "mid: root", "root"}, Chain(top))
	assert.Equal(t, root, RootCause(top))
	assert.Nil(t, Chain(nil))
}

func TestFormatDebugError(t *testing.T) {
	assert.Equal(t, "", FormatDebugError(nil))

	err := fmt.Errorf("save: %w", NewSystemError("write failed", ErrDiskFull))
	out := FormatDebugError(err)
	assert.Contains(t, out, "Error: save: write failed")
	assert.Contains(t, out, "Error chain:")
	assert.Contains(t, out, "Category: system")
	assert.Contains(t, out, "Suggestion:")
}
