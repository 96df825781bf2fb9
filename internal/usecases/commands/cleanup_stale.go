package commands

import (
	"context"

	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/pkg/decorator"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics"
)

type (
	CleanupStaleCommand struct{}

	CleanupStaleCommandHandler = decorator.CommandHandler[CleanupStaleCommand, int64]

	cleanupStaleCommandHandler struct {
		guard  ports.IdempotencyGuard
		logger logger.Logger
	}
)

func NewCleanupStaleCommandHandler(
	guard ports.IdempotencyGuard,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) CleanupStaleCommandHandler {
	return decorator.ApplyCommandDecorators[CleanupStaleCommand, int64](
		cleanupStaleCommandHandler{
			guard:  guard,
			logger: log,
		},
		log,
		metricsClient,
		tracerProvider,
	)
}

// Handle drops idempotency claims from previous days. Today's claims are
// left untouched so reprocessing stays blocked until the day rolls over.
func (h cleanupStaleCommandHandler) Handle(ctx context.Context, _ CleanupStaleCommand) (int64, error) {
	removed, err := h.guard.DropStale(ctx)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		h.logger.Info().Int64("removed", removed).Msg("dropped stale idempotency claims")
	}

	return removed, nil
}
