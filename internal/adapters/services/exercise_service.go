package services

import (
	"context"
	"fmt"
	"time"

	"github.com/throttled/throttled/v2"

	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/pkg/circuitbreaker"
	appLogger "github.com/fitsync/svc-exercise-refresh/pkg/logger"
)

const (
	catalogBreakerName = "workout-api-catalog"
	verifyPacerKey     = "workout-api:verify"
)

// ExerciseService wraps the workout API source with a circuit breaker on
// catalog listing and optional pacing of verification calls, so a struggling
// API is not hammered by a full refresh fan-out.
type ExerciseService struct {
	upstream ports.ExerciseSource
	breaker  *circuitbreaker.CircuitBreaker[[]model.Exercise]
	pacer    *throttled.GCRARateLimiterCtx
	logger   appLogger.Logger
}

var _ ports.ExerciseSource = (*ExerciseService)(nil)

// NewExerciseService creates a new service around the given source.
// A zero VerifyRPS disables pacing.
func NewExerciseService(
	upstream ports.ExerciseSource,
	cfg config.WorkoutAPI,
	pacerStore throttled.GCRAStoreCtx,
	logger appLogger.Logger,
) (*ExerciseService, error) {
	svc := &ExerciseService{
		upstream: upstream,
		breaker: circuitbreaker.New[[]model.Exercise](circuitbreaker.Config{
			Name:             catalogBreakerName,
			Enabled:          cfg.CircuitBreaker.Enabled,
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		}),
		logger: logger,
	}

	if cfg.VerifyRPS > 0 && pacerStore != nil {
		pacer, err := throttled.NewGCRARateLimiterCtx(pacerStore, throttled.RateQuota{
			MaxRate:  throttled.PerSec(int(cfg.VerifyRPS)),
			MaxBurst: int(cfg.VerifyBurst),
		})
		if err != nil {
			return nil, fmt.Errorf("creating verify pacer: %w", err)
		}

		svc.pacer = pacer
	}

	return svc, nil
}

// ListExercises retrieves the catalog through the circuit breaker.
func (s *ExerciseService) ListExercises(ctx context.Context) ([]model.Exercise, error) {
	return circuitbreaker.Execute(s.breaker, func() ([]model.Exercise, error) {
		return s.upstream.ListExercises(ctx)
	})
}

// VerifyExercise re-validates a single exercise, waiting for a pacing slot
// first when pacing is configured.
func (s *ExerciseService) VerifyExercise(ctx context.Context, id int) (*model.Exercise, error) {
	if err := s.pace(ctx); err != nil {
		return nil, err
	}

	return s.upstream.VerifyExercise(ctx, id)
}

// BreakerState reports the catalog breaker state for status endpoints.
func (s *ExerciseService) BreakerState() string {
	return s.breaker.State()
}

func (s *ExerciseService) pace(ctx context.Context) error {
	if s.pacer == nil {
		return nil
	}

	for {
		limited, result, err := s.pacer.RateLimitCtx(ctx, verifyPacerKey, 1)
		if err != nil {
			// A broken pacer store must not block verification.
			s.logger.Warn().Err(err).Msg("verify pacer store error, proceeding unpaced")

			return nil
		}

		if !limited {
			return nil
		}

		select {
		case <-time.After(result.RetryAfter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
