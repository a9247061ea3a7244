package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/driverhelper/internal/errors"
)

// ParseError represents an input parsing error with helpful examples.
type ParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
	sentinel   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

// Unwrap exposes the matching sentinel from the errors package.
func (e *ParseError) Unwrap() error {
	return e.sentinel
}

// FormatWithExamples returns the error message with example suggestions.
func (e *ParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// TimestampExamples provides example timestamp formats.
var TimestampExamples = []string{
	"2024-01-01",
	"yesterday",
	"2 days ago",
	"now",
}

// ReminderTimeExamples provides example reminder time formats.
var ReminderTimeExamples = []string{
	"+30m",
	"tomorrow 9am",
	"friday 5pm",
	"2024-01-15 14:00",
}

// AmountExamples provides example amount formats.
var AmountExamples = []string{
	"500",
	"12.50",
	"1,200",
}

// PeriodExamples provides example period names.
var PeriodExamples = []string{
	"today",
	"yesterday",
	"this week",
	"last month",
}

// NewTimestampError creates a timestamp parse error with standard examples.
func NewTimestampError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "date",
		Message:    "could not parse date",
		Examples:   TimestampExamples,
		Suggestion: "Try a date like 2024-01-01 or natural language like 'yesterday'.",
		sentinel:   errors.ErrInvalidTimestamp,
	}
}

// NewReminderTimeError creates a reminder time parse error.
func NewReminderTimeError(input, message string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "reminder time",
		Message:    message,
		Examples:   ReminderTimeExamples,
		Suggestion: "Reminder times can be relative (+30m) or absolute (tomorrow 9am).",
		sentinel:   errors.ErrInvalidTimestamp,
	}
}

// NewAmountError creates an amount parse error.
func NewAmountError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "amount",
		Message:    "must be a non-negative number",
		Examples:   AmountExamples,
		Suggestion: "Enter the amount without a sign; use --expense for money spent.",
		sentinel:   errors.ErrInvalidAmount,
	}
}

// NewPeriodError creates a period parse error.
func NewPeriodError(input string) *ParseError {
	return &ParseError{
		Input:    input,
		Field:    "period",
		Message:  "unknown period",
		Examples: PeriodExamples,
	}
}

// ToUserError converts a ParseError to a UserError for consistent handling.
func (e *ParseError) ToUserError() *errors.UserError {
	suggestion := e.Suggestion
	if len(e.Examples) > 0 && suggestion == "" {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}

	return &errors.UserError{
		Message:    e.Message,
		Field:      e.Field,
		Value:      e.Input,
		Suggestion: suggestion,
		Cause:      e.sentinel,
	}
}
