package usecases

import (
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/commands"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/queries"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics"
	"github.com/fitsync/svc-exercise-refresh/pkg/semaphore"
)

type (
	Commands struct {
		RefreshExercise commands.RefreshExerciseCommandHandler
		RunRefresh      commands.RunRefreshCommandHandler
		CleanupStale    commands.CleanupStaleCommandHandler
	}

	Queries struct {
		StoreStats     queries.StoreStatsQueryHandler
		LastRun        queries.LastRunQueryHandler
		FetchLiveness  queries.FetchLivenessQueryHandler
		FetchReadiness queries.FetchReadinessQueryHandler
	}

	Application struct {
		Commands Commands
		Queries  Queries
	}
)

func NewApplication(
	source ports.ExerciseSource,
	guard ports.IdempotencyGuard,
	reports ports.ReportStore,
	healthChecker ports.HealthChecker,
	cfg config.Refresh,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) *Application {
	limiter := semaphore.New(cfg.MaxConcurrency)

	refreshExercise := commands.NewRefreshExerciseCommandHandler(
		source,
		guard,
		limiter,
		cfg,
		log,
		metricsClient,
		tracerProvider,
	)

	return &Application{
		Commands: Commands{
			RefreshExercise: refreshExercise,
			RunRefresh:      commands.NewRunRefreshCommandHandler(source, refreshExercise, reports, log, metricsClient, tracerProvider),
			CleanupStale:    commands.NewCleanupStaleCommandHandler(guard, log, metricsClient, tracerProvider),
		},
		Queries: Queries{
			StoreStats:     queries.NewStoreStatsQueryHandler(guard, log, metricsClient, tracerProvider),
			LastRun:        queries.NewLastRunQueryHandler(reports, log, metricsClient, tracerProvider),
			FetchLiveness:  queries.NewFetchLivenessQueryHandler(healthChecker, log, metricsClient, tracerProvider),
			FetchReadiness: queries.NewFetchReadinessQueryHandler(healthChecker, log, metricsClient, tracerProvider),
		},
	}
}
