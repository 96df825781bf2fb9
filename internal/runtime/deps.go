package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/throttled/throttled/v2"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/fitsync/svc-exercise-refresh/internal/adapters/services"
	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/infrastructure"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics"
)

type (
	infrastructureDep struct {
		opsHTTPServer  *http.Server
		cacheClient    *infrastructure.KeydbClient
		logger         logger.Logger
		metricsClient  metrics.Client
		tracerProvider otelTrace.TracerProvider
	}

	repositories struct {
		secretsRepo    ports.SecretsRepository
		idempotency    ports.IdempotencyGuard
		reports        ports.ReportStore
		rateLimitStore throttled.GCRAStoreCtx
	}

	servicesDep struct {
		exercises     *services.ExerciseService
		prober        services.APIProber
		healthChecker ports.HealthChecker
	}

	applications struct {
		app *usecases.Application
	}

	dependencies struct {
		config       *config.ServiceConfig
		configLoader *config.Loader

		infra infrastructureDep

		repos repositories

		services servicesDep

		apps applications

		cleanupFuncs map[string]func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{
		cleanupFuncs: make(map[string]func(ctx context.Context) error),
	}

	allOpts := append(defaultOptions(ctx), opts...)

	for _, opt := range allOpts {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}
