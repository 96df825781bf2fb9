package repos

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/queries"
)

const storeStatsCacheKey = "store_stats"

// StoreStatsCacheAdapter adapts an in-process cache for StoreStatsQuery, so
// polled status endpoints do not scan the claim keyspace on every request.
type StoreStatsCacheAdapter struct {
	cache *gocache.Cache
}

// NewStoreStatsCacheAdapter creates a new cache adapter for StoreStatsQuery.
func NewStoreStatsCacheAdapter(ttl time.Duration) *StoreStatsCacheAdapter {
	return &StoreStatsCacheAdapter{cache: gocache.New(ttl, 0)}
}

// Get retrieves the cached store stats.
func (a *StoreStatsCacheAdapter) Get(_ context.Context, _ queries.StoreStatsQuery) (model.StoreStats, bool, error) {
	entry, found := a.cache.Get(storeStatsCacheKey)
	if !found {
		return model.StoreStats{}, false, nil
	}

	stats, ok := entry.(model.StoreStats)
	if !ok {
		return model.StoreStats{}, false, nil
	}

	return stats, true, nil
}

// Set stores the latest store stats.
func (a *StoreStatsCacheAdapter) Set(_ context.Context, _ queries.StoreStatsQuery, result model.StoreStats, ttl time.Duration) error {
	a.cache.Set(storeStatsCacheKey, result, ttl)

	return nil
}
