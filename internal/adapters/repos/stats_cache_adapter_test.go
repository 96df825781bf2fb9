package repos_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitsync/svc-exercise-refresh/internal/adapters/repos"
	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/queries"
)

func TestStoreStatsCacheAdapterRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	adapter := repos.NewStoreStatsCacheAdapter(time.Minute)

	_, hit, err := adapter.Get(ctx, queries.StoreStatsQuery{})
	require.NoError(t, err)
	require.False(t, hit)

	stats := model.StoreStats{Kind: model.StoreKindKeydb, ProcessedCount: 7, TTL: time.Hour}
	require.NoError(t, adapter.Set(ctx, queries.StoreStatsQuery{}, stats, time.Minute))

	cached, hit, err := adapter.Get(ctx, queries.StoreStatsQuery{})
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, stats, cached)
}

func TestStoreStatsCacheAdapterEntriesExpire(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	adapter := repos.NewStoreStatsCacheAdapter(10 * time.Millisecond)

	stats := model.StoreStats{Kind: model.StoreKindMemory, ProcessedCount: 1, TTL: time.Hour}
	require.NoError(t, adapter.Set(ctx, queries.StoreStatsQuery{}, stats, 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, hit, err := adapter.Get(ctx, queries.StoreStatsQuery{})
	require.NoError(t, err)
	require.False(t, hit)
}
