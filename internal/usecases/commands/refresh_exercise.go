package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/pkg/decorator"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics"
	"github.com/fitsync/svc-exercise-refresh/pkg/semaphore"
)

type (
	RefreshExerciseCommand struct {
		Exercise model.Exercise
	}

	RefreshExerciseCommandHandler = decorator.CommandHandler[RefreshExerciseCommand, model.RefreshResult]

	refreshExerciseCommandHandler struct {
		source  ports.ExerciseVerifier
		guard   ports.IdempotencyGuard
		limiter *semaphore.Semaphore

		maxRetries int
		baseDelay  time.Duration

		logger logger.Logger
	}
)

func NewRefreshExerciseCommandHandler(
	source ports.ExerciseVerifier,
	guard ports.IdempotencyGuard,
	limiter *semaphore.Semaphore,
	cfg config.Refresh,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) RefreshExerciseCommandHandler {
	return decorator.ApplyCommandDecorators[RefreshExerciseCommand, model.RefreshResult](
		refreshExerciseCommandHandler{
			source:     source,
			guard:      guard,
			limiter:    limiter,
			maxRetries: cfg.MaxRetries,
			baseDelay:  cfg.RetryBaseDelay,
			logger:     log,
		},
		log,
		metricsClient,
		tracerProvider,
	)
}

// Handle refreshes one exercise under a concurrency slot. Failures never
// surface as errors; every outcome is captured in the returned result so one
// bad item cannot abort its siblings.
func (h refreshExerciseCommandHandler) Handle(ctx context.Context, cmd RefreshExerciseCommand) (result model.RefreshResult, err error) {
	exerciseID := cmd.Exercise.ID
	startTime := time.Now()
	claimed := false

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if claimed {
			h.releaseClaim(ctx, exerciseID)
		}

		h.logger.Error().
			Int("exercise_id", exerciseID).
			Any("panic", r).
			Msg("panic while refreshing exercise")

		result = model.NewFailedResult(exerciseID, 1, fmt.Errorf("panic: %v", r), time.Since(startTime), 0)
		err = nil
	}()

	if acquireErr := h.limiter.Acquire(ctx); acquireErr != nil {
		return model.NewFailedResult(exerciseID, 0, acquireErr, time.Since(startTime), 0), nil
	}
	defer h.limiter.Release()

	proceed, claimErr := h.guard.Claim(ctx, exerciseID)
	if claimErr != nil {
		h.logger.Warn().
			Err(claimErr).
			Int("exercise_id", exerciseID).
			Msg("idempotency claim failed, refreshing anyway")

		proceed = true
	}

	if !proceed {
		return model.NewSkippedResult(exerciseID, time.Since(startTime)), nil
	}
	claimed = true

	exercise, attempts, verifyErr := h.verifyWithRetry(ctx, exerciseID)
	if verifyErr != nil {
		// Give a later run another shot at this exercise today.
		h.releaseClaim(ctx, exerciseID)

		return model.NewFailedResult(exerciseID, attempts, verifyErr, time.Since(startTime), attempts-1), nil
	}

	took := time.Since(startTime)

	h.logger.Info().
		Int("exercise_id", exerciseID).
		Str("name", exercise.Name).
		Int("retries", attempts-1).
		Int64("duration_ms", took.Milliseconds()).
		Msg("exercise refreshed")

	return model.NewProcessedResult(exerciseID, took, attempts-1), nil
}

// verifyWithRetry runs the remote verification with exponential backoff.
// A not-found answer is terminal and stops the attempt loop immediately.
// maxRetries caps total attempts; at least one attempt is always made.
func (h refreshExerciseCommandHandler) verifyWithRetry(ctx context.Context, exerciseID int) (*model.Exercise, int, error) {
	maxAttempts := h.maxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = h.baseDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0

	attempts := 0
	operation := func() (*model.Exercise, error) {
		attempts++

		exercise, err := h.source.VerifyExercise(ctx, exerciseID)
		if err != nil {
			if errors.Is(err, model.ErrExerciseNotFound) {
				return nil, backoff.Permanent(err)
			}

			return nil, err
		}

		return exercise, nil
	}

	exercise, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithNotify(func(retryErr error, delay time.Duration) {
			h.logger.Warn().
				Err(retryErr).
				Int("exercise_id", exerciseID).
				Str("delay", delay.String()).
				Msg("retrying exercise verification")
		}),
	)

	return exercise, attempts, err
}

func (h refreshExerciseCommandHandler) releaseClaim(ctx context.Context, exerciseID int) {
	if err := h.guard.Release(ctx, exerciseID); err != nil {
		h.logger.Warn().
			Err(err).
			Int("exercise_id", exerciseID).
			Msg("releasing idempotency claim failed")
	}
}
