package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		level  string
		format string
	}{
		{
			name:   "creates logger with debug level",
			level:  logger.LogLevelDebug,
			format: "console",
		},
		{
			name:   "creates logger with warn level",
			level:  logger.LogLevelWarn,
			format: "console",
		},
		{
			name:   "creates logger with json format",
			level:  logger.LogLevelInfo,
			format: logger.JSONLoggingFormat,
		},
		{
			name:   "creates logger with default level for unknown",
			level:  "unknown",
			format: "console",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			log := logger.New(tc.level, tc.format)
			require.NotNil(t, log)
		})
	}
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		setupContext  func() context.Context
		expectedRunID string
		hasRunID      bool
	}{
		{
			name: "adds run ID to logger",
			setupContext: func() context.Context {
				return logger.WithRunID(context.Background(), "run-42")
			},
			expectedRunID: "run-42",
			hasRunID:      true,
		},
		{
			name: "handles empty context",
			setupContext: func() context.Context {
				return context.Background()
			},
			hasRunID: false,
		},
		{
			name: "handles empty run ID",
			setupContext: func() context.Context {
				return logger.WithRunID(context.Background(), "")
			},
			hasRunID: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.NewWithWriter(logger.LogLevelInfo, logger.JSONLoggingFormat, &buf)

			ctx := tc.setupContext()
			ctxLogger := log.WithContext(ctx)

			ctxLogger.Info().Msg("test message")

			if tc.hasRunID {
				var logEntry map[string]any
				err := json.Unmarshal(buf.Bytes(), &logEntry)
				require.NoError(t, err)
				require.Equal(t, tc.expectedRunID, logEntry["run_id"])
			}
		})
	}
}
