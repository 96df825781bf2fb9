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
	LastRunQuery struct{}

	LastRunQueryHandler = decorator.QueryHandler[LastRunQuery, *model.RunReport]

	lastRunQueryHandler struct {
		reports ports.ReportStore
	}
)

func NewLastRunQueryHandler(
	reports ports.ReportStore,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) LastRunQueryHandler {
	return decorator.ApplyQueryDecorators[LastRunQuery, *model.RunReport](
		lastRunQueryHandler{reports: reports},
		log,
		metricsClient,
		tracerProvider,
	)
}

// Execute returns the most recent run report, or model.ErrReportNotFound
// when no run has completed yet.
func (h lastRunQueryHandler) Execute(ctx context.Context, _ LastRunQuery) (*model.RunReport, error) {
	return h.reports.LastReport(ctx)
}
