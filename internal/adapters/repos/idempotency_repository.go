package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/pkg/idempotency"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	gocache "github.com/patrickmn/go-cache"
)

const (
	claimOperation = "refresh"
	claimValue     = "processed"

	fallbackCleanupInterval = 10 * time.Minute
)

// IdempotencyRepository implements day-scoped claims on the shared store.
// When the store is unreachable an in-process fallback cache takes over, so
// a run keeps its at-most-once-per-day behavior within the process. Fallback
// claims are process-local and are not reconciled with the shared store.
type IdempotencyRepository struct {
	client   ports.CacheClient
	fallback *gocache.Cache
	ttl      time.Duration
	logger   logger.Logger
}

// NewIdempotencyRepository creates a new idempotency repository.
func NewIdempotencyRepository(client ports.CacheClient, ttl time.Duration, log logger.Logger) *IdempotencyRepository {
	return &IdempotencyRepository{
		client:   client,
		fallback: gocache.New(ttl, fallbackCleanupInterval),
		ttl:      ttl,
		logger:   log,
	}
}

// Claim marks the exercise as processed for the current UTC day.
func (r *IdempotencyRepository) Claim(ctx context.Context, exerciseID int) (bool, error) {
	key := r.claimKey(exerciseID)

	acquired, err := r.client.SetIfAbsent(ctx, key, claimValue, r.ttl)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("store unreachable, claiming via in-process fallback")

		return r.fallback.Add(key, claimValue, r.ttl) == nil, nil
	}

	return acquired, nil
}

// Release frees today's claim so a later run may retry the exercise.
func (r *IdempotencyRepository) Release(ctx context.Context, exerciseID int) error {
	key := r.claimKey(exerciseID)

	r.fallback.Delete(key)

	if _, err := r.client.Delete(ctx, key); err != nil {
		r.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("store unreachable, claim released from in-process fallback only")
	}

	return nil
}

// DropStale removes claims left over from previous UTC days.
func (r *IdempotencyRepository) DropStale(ctx context.Context) (int64, error) {
	today := idempotency.Day(time.Now())

	var removed int64

	for key := range r.fallback.Items() {
		if day, ok := idempotency.DayOf(key); ok && day != today {
			r.fallback.Delete(key)
			removed++
		}
	}

	keys, err := r.client.Keys(ctx, idempotency.ScanPattern())
	if err != nil {
		r.logger.Warn().
			Err(err).
			Msg("store unreachable, dropped stale claims from in-process fallback only")

		return removed, nil
	}

	stale := make([]string, 0, len(keys))

	for _, key := range keys {
		if day, ok := idempotency.DayOf(key); ok && day != today {
			stale = append(stale, key)
		}
	}

	if len(stale) == 0 {
		return removed, nil
	}

	dropped, err := r.client.Delete(ctx, stale...)
	if err != nil {
		return removed, fmt.Errorf("dropping stale claims: %w", err)
	}

	return removed + dropped, nil
}

// Stats reports the backing store kind and the current claim volume.
func (r *IdempotencyRepository) Stats(ctx context.Context) (model.StoreStats, error) {
	if !r.client.IsHealthy(ctx) {
		return model.StoreStats{
			Kind:           model.StoreKindMemory,
			ProcessedCount: r.fallback.ItemCount(),
			TTL:            r.ttl,
		}, nil
	}

	keys, err := r.client.Keys(ctx, idempotency.ScanPattern())
	if err != nil {
		return model.StoreStats{}, fmt.Errorf("counting claims: %w", err)
	}

	return model.StoreStats{
		Kind:           model.StoreKindKeydb,
		ProcessedCount: len(keys),
		TTL:            r.ttl,
	}, nil
}

func (r *IdempotencyRepository) claimKey(exerciseID int) string {
	return idempotency.Key(claimOperation, exerciseID, time.Now())
}
