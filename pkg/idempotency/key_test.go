package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		operation string
		id        int
		at        time.Time
		expected  string
	}{
		{
			name:      "formats operation, id and UTC day",
			operation: "refresh",
			id:        42,
			at:        time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			expected:  "idempotency:refresh:42:2024-03-15",
		},
		{
			name:      "normalizes the day to UTC",
			operation: "refresh",
			id:        7,
			at:        time.Date(2024, 3, 15, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*60*60)),
			expected:  "idempotency:refresh:7:2024-03-16",
		},
		{
			name:      "zero id",
			operation: "warmup",
			id:        0,
			at:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expected:  "idempotency:warmup:0:2024-01-01",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, Key(tc.operation, tc.id, tc.at))
		})
	}
}

func TestKeySameDayIsStable(t *testing.T) {
	t.Parallel()

	morning := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)

	require.Equal(t, Key("refresh", 1, morning), Key("refresh", 1, evening))
}

func TestKeyNextDayDiffers(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	require.NotEqual(t, Key("refresh", 1, today), Key("refresh", 1, today.Add(24*time.Hour)))
}

func TestDay(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*60*60))

	require.Equal(t, "2024-12-31", Day(at))
}

func TestScanPattern(t *testing.T) {
	t.Parallel()

	require.Equal(t, "idempotency:*", ScanPattern())
}

func TestDayOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		key         string
		expectedDay string
		expectedOK  bool
	}{
		{
			name:        "claim key",
			key:         "idempotency:refresh:42:2024-03-15",
			expectedDay: "2024-03-15",
			expectedOK:  true,
		},
		{
			name:       "wrong prefix",
			key:        "cache:refresh:42:2024-03-15",
			expectedOK: false,
		},
		{
			name:       "missing day segment",
			key:        "idempotency:refresh:42",
			expectedOK: false,
		},
		{
			name:       "malformed day",
			key:        "idempotency:refresh:42:yesterday",
			expectedOK: false,
		},
		{
			name:       "empty key",
			key:        "",
			expectedOK: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			day, ok := DayOf(tc.key)

			require.Equal(t, tc.expectedOK, ok)
			require.Equal(t, tc.expectedDay, day)
		})
	}
}
