//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

//counterfeiter:generate -o ../mocks/idempotency_guard.go . IdempotencyGuard

import (
	"context"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
)

// IdempotencyGuard defines day-scoped claim operations for refresh runs.
type IdempotencyGuard interface {
	// Claim marks the exercise as processed for the current UTC day.
	// Returns false when a claim for today already exists.
	Claim(ctx context.Context, exerciseID int) (bool, error)

	// Release frees today's claim so a later run may retry the exercise.
	Release(ctx context.Context, exerciseID int) error

	// DropStale removes claims left over from previous UTC days.
	// Returns the number of claims removed.
	DropStale(ctx context.Context) (int64, error)

	// Stats reports the backing store kind and the current claim volume.
	Stats(ctx context.Context) (model.StoreStats, error)
}
