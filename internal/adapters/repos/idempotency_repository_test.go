package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/fitsync/svc-exercise-refresh/internal/adapters/repos"
	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/infrastructure"
	"github.com/fitsync/svc-exercise-refresh/pkg/idempotency"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
)

type IdempotencyRepositoryTestSuite struct {
	suite.Suite
	miniRedis   *miniredis.Miniredis
	keydbClient *infrastructure.KeydbClient
	repo        *repos.IdempotencyRepository
}

func TestIdempotencyRepositoryTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(IdempotencyRepositoryTestSuite))
}

func (s *IdempotencyRepositoryTestSuite) SetupTest() {
	var err error
	s.miniRedis, err = miniredis.Run()
	s.Require().NoError(err)

	cfg := config.Keydb{
		URL:          "redis://" + s.miniRedis.Addr(),
		PoolSize:     5,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}

	s.keydbClient, err = infrastructure.NewKeydbClient(cfg, logger.NewTestLogger())
	s.Require().NoError(err)

	s.repo = repos.NewIdempotencyRepository(s.keydbClient, time.Hour, logger.NewTestLogger())
}

func (s *IdempotencyRepositoryTestSuite) TearDownTest() {
	if s.keydbClient != nil {
		s.keydbClient.Close()
	}
	if s.miniRedis != nil {
		s.miniRedis.Close()
	}
}

func (s *IdempotencyRepositoryTestSuite) todayKey(exerciseID int) string {
	return idempotency.Key("refresh", exerciseID, time.Now())
}

func (s *IdempotencyRepositoryTestSuite) TestClaimFirstTime() {
	ctx := context.Background()

	claimed, err := s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)

	value, err := s.miniRedis.Get(s.todayKey(42))
	s.Require().NoError(err)
	s.Require().Equal("processed", value)

	ttl := s.miniRedis.TTL(s.todayKey(42))
	s.Require().Equal(time.Hour, ttl)
}

func (s *IdempotencyRepositoryTestSuite) TestClaimTwiceSkips() {
	ctx := context.Background()

	claimed, err := s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)

	claimed, err = s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().False(claimed)
}

func (s *IdempotencyRepositoryTestSuite) TestClaimIsPerExercise() {
	ctx := context.Background()

	claimed, err := s.repo.Claim(ctx, 1)
	s.Require().NoError(err)
	s.Require().True(claimed)

	claimed, err = s.repo.Claim(ctx, 2)
	s.Require().NoError(err)
	s.Require().True(claimed)
}

func (s *IdempotencyRepositoryTestSuite) TestReleaseReopensClaim() {
	ctx := context.Background()

	claimed, err := s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)

	s.Require().NoError(s.repo.Release(ctx, 42))

	claimed, err = s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)
}

func (s *IdempotencyRepositoryTestSuite) TestClaimFallsBackWhenStoreDown() {
	ctx := context.Background()

	s.miniRedis.Close()

	claimed, err := s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)

	// The fallback is shared, so a sibling claim for the same exercise skips.
	claimed, err = s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().False(claimed)
}

func (s *IdempotencyRepositoryTestSuite) TestReleaseFallsBackWhenStoreDown() {
	ctx := context.Background()

	s.miniRedis.Close()

	claimed, err := s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)

	s.Require().NoError(s.repo.Release(ctx, 42))

	claimed, err = s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)
}

func (s *IdempotencyRepositoryTestSuite) TestDropStaleKeepsToday() {
	ctx := context.Background()

	claimed, err := s.repo.Claim(ctx, 1)
	s.Require().NoError(err)
	s.Require().True(claimed)

	s.Require().NoError(s.miniRedis.Set("idempotency:refresh:7:2020-01-01", "processed"))
	s.Require().NoError(s.miniRedis.Set("idempotency:refresh:8:2020-01-02", "processed"))
	s.Require().NoError(s.miniRedis.Set("idempotency:malformed", "processed"))

	removed, err := s.repo.DropStale(ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(2), removed)

	s.Require().True(s.miniRedis.Exists(s.todayKey(1)))
	s.Require().False(s.miniRedis.Exists("idempotency:refresh:7:2020-01-01"))
	s.Require().False(s.miniRedis.Exists("idempotency:refresh:8:2020-01-02"))
	s.Require().True(s.miniRedis.Exists("idempotency:malformed"))
}

func (s *IdempotencyRepositoryTestSuite) TestDropStaleWhenStoreDown() {
	ctx := context.Background()

	s.miniRedis.Close()

	removed, err := s.repo.DropStale(ctx)
	s.Require().NoError(err)
	s.Require().Zero(removed)
}

func (s *IdempotencyRepositoryTestSuite) TestStats() {
	ctx := context.Background()

	for id := 1; id <= 3; id++ {
		claimed, err := s.repo.Claim(ctx, id)
		s.Require().NoError(err)
		s.Require().True(claimed)
	}

	stats, err := s.repo.Stats(ctx)
	s.Require().NoError(err)
	s.Require().Equal(model.StoreKindKeydb, stats.Kind)
	s.Require().Equal(3, stats.ProcessedCount)
	s.Require().Equal(time.Hour, stats.TTL)
}

func (s *IdempotencyRepositoryTestSuite) TestStatsWhenDegraded() {
	ctx := context.Background()

	s.miniRedis.Close()

	claimed, err := s.repo.Claim(ctx, 42)
	s.Require().NoError(err)
	s.Require().True(claimed)

	stats, err := s.repo.Stats(ctx)
	s.Require().NoError(err)
	s.Require().Equal(model.StoreKindMemory, stats.Kind)
	s.Require().Equal(1, stats.ProcessedCount)
	s.Require().Equal(time.Hour, stats.TTL)
}
