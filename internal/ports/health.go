package ports

//counterfeiter:generate -o ../mocks/health_checker.go . HealthChecker

import (
	"context"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
)

// HealthChecker defines the interface for health check operations.
type HealthChecker interface {
	// Liveness reports whether the process is alive.
	Liveness(ctx context.Context) (*model.LivenessReport, error)

	// Readiness reports whether the service dependencies are reachable.
	Readiness(ctx context.Context) (*model.ReadinessReport, error)
}
