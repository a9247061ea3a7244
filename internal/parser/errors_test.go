package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorError(t *testing.T) {
	err := NewTimestampError("badtime")
	assert.Equal(t, "invalid date 'badtime': could not parse date", err.Error())
}

func TestFormatWithExamples(t *testing.T) {
	t.Run("with_examples_and_suggestion", func(t *testing.T) {
		out := NewReminderTimeError("soonish", "could not parse time").FormatWithExamples()
		assert.Contains(t, out, "Valid examples:")
		assert.Contains(t, out, "tomorrow 9am")
		assert.Contains(t, out, "relative (+30m)")
	})

	t.Run("bare", func(t *testing.T) {
		err := &ParseError{Input: "x", Field: "f", Message: "m"}
		assert.Equal(t, err.Error(), err.FormatWithExamples())
	})
}

func TestToUserError(t *testing.T) {
	t.Run("explicit_suggestion", func(t *testing.T) {
		ue := NewAmountError("-1").ToUserError()
		assert.Equal(t, "amount", ue.Field)
		assert.Equal(t, "-1", ue.Value)
		assert.Contains(t, ue.Suggestion, "--expense")
	})

	t.Run("examples_fallback", func(t *testing.T) {
		ue := NewPeriodError("fortnight").ToUserError()
		assert.Equal(t, "Try: today, yesterday, this week", ue.Suggestion)
	})
}
