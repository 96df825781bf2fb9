package queries

import (
	"context"

	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/pkg/decorator"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics"
)

type (
	StoreStatsQuery struct{}

	StoreStatsQueryHandler = decorator.QueryHandler[StoreStatsQuery, model.StoreStats]

	storeStatsQueryHandler struct {
		guard ports.IdempotencyGuard
	}
)

func NewStoreStatsQueryHandler(
	guard ports.IdempotencyGuard,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) StoreStatsQueryHandler {
	return decorator.ApplyQueryDecorators[StoreStatsQuery, model.StoreStats](
		storeStatsQueryHandler{guard: guard},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h storeStatsQueryHandler) Execute(ctx context.Context, _ StoreStatsQuery) (model.StoreStats, error) {
	return h.guard.Stats(ctx)
}
