package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/errors"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"500", 500},
		{"12.50", 12.5},
		{" 1,200 ", 1200},
		{"$45.999", 46},
		{"₹350", 350},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, input := range []string{"", "-5", "abc", "NaN", "Inf", "$"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAmount(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidAmount)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			ue := pe.ToUserError()
			assert.ErrorIs(t, ue, errors.ErrValidation)
			assert.ErrorIs(t, ue, errors.ErrInvalidAmount)
		})
	}
}
