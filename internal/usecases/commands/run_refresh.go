package commands

import (
	"context"
	"time"

	otelTrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/pkg/decorator"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics"
)

type (
	RunRefreshCommand struct{}

	RunRefreshCommandHandler = decorator.CommandHandler[RunRefreshCommand, *model.RunReport]

	runRefreshCommandHandler struct {
		source  ports.CatalogLister
		refresh RefreshExerciseCommandHandler
		reports ports.ReportStore

		logger logger.Logger
	}
)

func NewRunRefreshCommandHandler(
	source ports.CatalogLister,
	refresh RefreshExerciseCommandHandler,
	reports ports.ReportStore,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) RunRefreshCommandHandler {
	return decorator.ApplyCommandDecorators[RunRefreshCommand, *model.RunReport](
		runRefreshCommandHandler{
			source:  source,
			refresh: refresh,
			reports: reports,
			logger:  log,
		},
		log,
		metricsClient,
		tracerProvider,
	)
}

// Handle runs one full refresh batch: list the catalog, fan the items out
// under the concurrency limiter, and aggregate the outcomes into a report.
// A failed catalog listing yields an empty run, not an error; per-item
// failures are data in the report.
func (h runRefreshCommandHandler) Handle(ctx context.Context, _ RunRefreshCommand) (*model.RunReport, error) {
	report := model.NewRunReport(time.Now().UTC())
	ctx = logger.WithRunID(ctx, report.RunID.String())
	log := h.logger.WithContext(ctx)

	exercises, listErr := h.source.ListExercises(ctx)
	if listErr != nil {
		log.Warn().Err(listErr).Msg("listing exercises failed, nothing to refresh")
	}

	var results []model.RefreshResult

	switch {
	case len(exercises) > 0:
		log.Info().Int("count", len(exercises)).Msg("starting exercise refresh")

		results = h.fanOut(ctx, exercises)
	case listErr == nil:
		log.Warn().Msg("exercise catalog is empty, nothing to refresh")
	}

	report.Complete(time.Now().UTC(), results)

	log.Info().
		Int("processed", report.Summary.Processed).
		Int("skipped", report.Summary.Skipped).
		Int("failed", report.Summary.Failed).
		Int("total", report.Summary.Total).
		Float64("success_rate", report.Summary.SuccessRate).
		Float64("avg_duration_ms", report.Summary.AvgDurationMs).
		Str("took", report.Took().String()).
		Msg("refresh complete")

	if err := h.reports.SaveReport(ctx, report); err != nil {
		log.Warn().Err(err).Msg("saving run report failed")
	}

	// Only overwrite the snapshot with a catalog we actually received.
	if listErr == nil {
		if err := h.reports.SaveSnapshot(ctx, exercises); err != nil {
			log.Warn().Err(err).Msg("saving exercise snapshot failed")
		}
	}

	return report, nil
}

// fanOut submits every exercise at once; the refresh handler's semaphore
// enforces the concurrency ceiling. Every item runs to completion, a slow or
// failing item never cancels its siblings.
func (h runRefreshCommandHandler) fanOut(ctx context.Context, exercises []model.Exercise) []model.RefreshResult {
	results := make([]model.RefreshResult, len(exercises))

	group, groupCtx := errgroup.WithContext(ctx)

	for index, exercise := range exercises {
		group.Go(func() error {
			result, err := h.refresh.Handle(groupCtx, RefreshExerciseCommand{Exercise: exercise})
			if err != nil {
				result = model.NewFailedResult(exercise.ID, 0, err, 0, 0)
			}

			results[index] = result

			return nil
		})
	}

	// Workers report failures through their results, never as errors.
	_ = group.Wait()

	return results
}
