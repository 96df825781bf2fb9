package services

import (
	"context"
	"time"

	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
)

const (
	keydbDependency      = "keydb"
	workoutAPIDependency = "workout-api"

	dependencyCheckTimeout = 3 * time.Second
)

// APIProber probes the workout API's health endpoint.
type APIProber interface {
	Health(ctx context.Context) error
}

// HealthService reports liveness and readiness of the refresher and its
// dependencies. A KeyDB outage degrades rather than downs the service since
// the idempotency store falls back to process memory.
type HealthService struct {
	cache ports.CacheClient
	api   APIProber
}

var _ ports.HealthChecker = (*HealthService)(nil)

// NewHealthService creates a new health service.
func NewHealthService(cache ports.CacheClient, api APIProber) *HealthService {
	return &HealthService{
		cache: cache,
		api:   api,
	}
}

// Liveness reports whether the process is alive.
func (s *HealthService) Liveness(_ context.Context) (*model.LivenessReport, error) {
	return &model.LivenessReport{
		Status:    model.HealthStatusOK,
		Timestamp: time.Now().UTC(),
		Version:   config.ServiceVersion,
	}, nil
}

// Readiness reports whether the refresher can perform useful work.
func (s *HealthService) Readiness(ctx context.Context) (*model.ReadinessReport, error) {
	checks := map[string]model.DependencyCheck{
		keydbDependency:      s.checkKeydb(ctx),
		workoutAPIDependency: s.checkWorkoutAPI(ctx),
	}

	status := model.HealthStatusOK

	if checks[keydbDependency].Status == model.DependencyStatusDown {
		status = model.HealthStatusDegraded
	}

	if checks[workoutAPIDependency].Status == model.DependencyStatusDown {
		status = model.HealthStatusDown
	}

	return &model.ReadinessReport{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   config.ServiceVersion,
		Checks:    checks,
	}, nil
}

func (s *HealthService) checkKeydb(ctx context.Context) model.DependencyCheck {
	ctx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
	defer cancel()

	startTime := time.Now()
	healthy := s.cache.IsHealthy(ctx)
	latency := time.Since(startTime)

	check := model.DependencyCheck{
		Status:      model.DependencyStatusUp,
		LatencyMs:   uint64(latency.Milliseconds()),
		Message:     "ok",
		LastChecked: time.Now().UTC(),
	}

	if !healthy {
		check.Status = model.DependencyStatusDown
		check.Message = "unreachable, idempotency degraded to process memory"
	}

	return check
}

func (s *HealthService) checkWorkoutAPI(ctx context.Context) model.DependencyCheck {
	ctx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
	defer cancel()

	startTime := time.Now()
	err := s.api.Health(ctx)
	latency := time.Since(startTime)

	check := model.DependencyCheck{
		Status:      model.DependencyStatusUp,
		LatencyMs:   uint64(latency.Milliseconds()),
		Message:     "ok",
		LastChecked: time.Now().UTC(),
	}

	if err != nil {
		check.Status = model.DependencyStatusDown
		check.Message = "health probe failed"
		check.Error = err.Error()
	}

	return check
}
