package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
)

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		outcome  model.Outcome
		expected string
	}{
		{
			name:     "processed outcome returns correct string",
			outcome:  model.OutcomeProcessed,
			expected: "processed",
		},
		{
			name:     "skipped outcome returns correct string",
			outcome:  model.OutcomeSkipped,
			expected: "skipped",
		},
		{
			name:     "failed outcome returns correct string",
			outcome:  model.OutcomeFailed,
			expected: "failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, tc.outcome.String())
		})
	}
}

func TestOutcome_IsValid(t *testing.T) {
	t.Parallel()

	for _, outcome := range model.AllOutcomes() {
		require.True(t, outcome.IsValid())
	}

	require.False(t, model.Outcome("pending").IsValid())
	require.False(t, model.Outcome("").IsValid())
}

func TestParseOutcome(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		input       string
		expected    model.Outcome
		expectError bool
	}{
		{
			name:     "processed",
			input:    "processed",
			expected: model.OutcomeProcessed,
		},
		{
			name:     "uppercase is normalized",
			input:    "SKIPPED",
			expected: model.OutcomeSkipped,
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  failed  ",
			expected: model.OutcomeFailed,
		},
		{
			name:        "unknown outcome",
			input:       "crashed",
			expectError: true,
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			outcome, err := model.ParseOutcome(tc.input)

			if tc.expectError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expected, outcome)
		})
	}
}
