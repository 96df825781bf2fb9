//go:build integration

package itest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/commands"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/queries"
	"github.com/fitsync/svc-exercise-refresh/pkg/idempotency"
)

type RefreshRunTestSuite struct {
	BaseTestSuite
}

func TestRefreshRunTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RefreshRunTestSuite))
}

func (s *RefreshRunTestSuite) resultFor(report *model.RunReport, exerciseID int) model.RefreshResult {
	for _, result := range report.Results {
		if result.ExerciseID == exerciseID {
			return result
		}
	}

	s.Require().Failf("missing result", "no refresh result for exercise %d", exerciseID)

	return model.RefreshResult{}
}

func (s *RefreshRunTestSuite) TestRunProcessesWholeCatalog() {
	ctx := s.T().Context()

	report, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Require().Len(report.Results, 3)

	s.Equal(3, report.Summary.Total)
	s.Equal(3, report.Summary.Processed)
	s.Equal(0, report.Summary.Skipped)
	s.Equal(0, report.Summary.Failed)
	s.True(report.Summary.Succeeded())

	for _, result := range report.Results {
		s.Equal(model.OutcomeProcessed, result.Outcome)
		s.Equal(1, s.Env.API.VerifyCalls(result.ExerciseID))
	}

	s.Equal(1, s.Env.API.ListCalls())

	for _, exercise := range DefaultCatalog() {
		s.True(s.Env.Store.Exists(ClaimKey(exercise.ID)), "expected a claim for exercise %d", exercise.ID)
	}
}

func (s *RefreshRunTestSuite) TestRunPersistsReportAndSnapshot() {
	ctx := s.T().Context()

	report, err := s.Env.RunOnce(ctx)
	s.Require().NoError(err)

	lastRun, err := s.Env.App.Queries.LastRun.Handle(ctx, queries.LastRunQuery{})

	s.Require().NoError(err)
	s.Equal(report.RunID.String(), lastRun.RunID.String())
	s.Equal(report.Summary.Total, lastRun.Summary.Total)
	s.Require().Len(lastRun.Results, 3)

	s.True(s.Env.Store.Exists("exercises:snapshot:v1"))

	stats, err := s.Env.App.Queries.StoreStats.Handle(ctx, queries.StoreStatsQuery{})

	s.Require().NoError(err)
	s.Equal(model.StoreKindKeydb, stats.Kind)
	s.Equal(3, stats.ProcessedCount)
}

func (s *RefreshRunTestSuite) TestSecondRunSkipsAlreadyProcessed() {
	ctx := s.T().Context()

	first, err := s.Env.RunOnce(ctx)
	s.Require().NoError(err)
	s.Require().Equal(3, first.Summary.Processed)

	second, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(3, second.Summary.Total)
	s.Equal(0, second.Summary.Processed)
	s.Equal(3, second.Summary.Skipped)
	s.Equal(0, second.Summary.Failed)
	s.True(second.Summary.Succeeded())

	for _, exercise := range DefaultCatalog() {
		s.Equal(1, s.Env.API.VerifyCalls(exercise.ID), "exercise %d must not be re-verified", exercise.ID)
	}
}

func (s *RefreshRunTestSuite) TestTransientFailuresAreRetried() {
	ctx := s.T().Context()

	s.Env.API.FailVerify(2, 2)

	report, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(3, report.Summary.Processed)
	s.Equal(0, report.Summary.Failed)

	result := s.resultFor(report, 2)
	s.Equal(model.OutcomeProcessed, result.Outcome)
	s.Equal(2, result.Retries)
	s.Equal(3, s.Env.API.VerifyCalls(2))
}

func (s *RefreshRunTestSuite) TestExhaustedRetriesReleaseTheClaim() {
	ctx := s.T().Context()

	s.Env.API.FailVerify(2, 10)

	report, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(2, report.Summary.Processed)
	s.Equal(1, report.Summary.Failed)
	s.False(report.Summary.Succeeded())

	result := s.resultFor(report, 2)
	s.Equal(model.OutcomeFailed, result.Outcome)
	s.Contains(result.Message, "Failed after 3 attempts")
	s.Equal(2, result.Retries)
	s.Equal(3, s.Env.API.VerifyCalls(2))

	s.False(s.Env.Store.Exists(ClaimKey(2)), "a failed exercise must not stay claimed")
	s.True(s.Env.Store.Exists(ClaimKey(1)))
	s.True(s.Env.Store.Exists(ClaimKey(3)))
}

func (s *RefreshRunTestSuite) TestMissingExerciseFailsFastThenRecovers() {
	ctx := s.T().Context()

	s.Env.API.RemoveExercise(2)

	first, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(2, first.Summary.Processed)
	s.Equal(1, first.Summary.Failed)
	s.False(first.Summary.Succeeded())

	result := s.resultFor(first, 2)
	s.Equal(model.OutcomeFailed, result.Outcome)
	s.Contains(result.Message, "Failed after 1 attempts")
	s.Equal(1, s.Env.API.VerifyCalls(2), "a missing exercise must not be retried")

	s.Env.API.RestoreExercise(2)

	second, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(1, second.Summary.Processed)
	s.Equal(2, second.Summary.Skipped)
	s.Equal(0, second.Summary.Failed)
	s.True(second.Summary.Succeeded())
	s.Equal(model.OutcomeProcessed, s.resultFor(second, 2).Outcome)
}

func (s *RefreshRunTestSuite) TestConcurrencyStaysWithinTheConfiguredCap() {
	ctx := s.T().Context()

	catalog := make([]model.Exercise, 12)
	for index := range catalog {
		catalog[index] = model.Exercise{
			ID:   index + 1,
			Name: fmt.Sprintf("Exercise %d", index+1),
			Sets: 3,
			Reps: 10,
		}
	}

	s.Env.API.SetCatalog(catalog)
	s.Env.API.SetVerifyDelay(20 * time.Millisecond)

	report, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(12, report.Summary.Processed)
	s.Positive(s.Env.API.VerifyPeak())
	s.LessOrEqual(s.Env.API.VerifyPeak(), s.Env.Config.Refresh.MaxConcurrency)
}

func (s *RefreshRunTestSuite) TestEmptyCatalogYieldsEmptyRun() {
	ctx := s.T().Context()

	s.Env.API.SetCatalog(nil)

	report, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(0, report.Summary.Total)
	s.True(report.Summary.Succeeded())
	s.Empty(report.Results)
}

func (s *RefreshRunTestSuite) TestCatalogOutageYieldsEmptyRun() {
	ctx := s.T().Context()

	s.Env.API.SetDown(true)

	report, err := s.Env.RunOnce(ctx)

	s.Require().NoError(err)
	s.Equal(0, report.Summary.Total)
	s.True(report.Summary.Succeeded())

	// The previous snapshot must not be overwritten by a failed listing.
	s.False(s.Env.Store.Exists("exercises:snapshot:v1"))
}

func (s *RefreshRunTestSuite) TestCleanupDropsOnlyStaleClaims() {
	ctx := s.T().Context()

	staleKey := idempotency.Key("refresh", 7, time.Now().AddDate(0, 0, -1))
	s.Require().NoError(s.Env.Store.Set(staleKey, "processed"))

	todayKey := ClaimKey(8)
	s.Require().NoError(s.Env.Store.Set(todayKey, "processed"))

	removed, err := s.Env.App.Commands.CleanupStale.Handle(ctx, commands.CleanupStaleCommand{})

	s.Require().NoError(err)
	s.Equal(int64(1), removed)
	s.False(s.Env.Store.Exists(staleKey))
	s.True(s.Env.Store.Exists(todayKey))
}
