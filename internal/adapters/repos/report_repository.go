package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/ports"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
)

const (
	reportCacheVersion = "v1"
	lastRunKey         = "refresh:last_run:" + reportCacheVersion
	snapshotKey        = "exercises:snapshot:" + reportCacheVersion
)

type (
	// cachedResult represents a per-exercise outcome in JSON format for caching.
	cachedResult struct {
		ExerciseID int     `json:"exercise_id"`
		Outcome    string  `json:"outcome"`
		Message    string  `json:"message"`
		DurationMs float64 `json:"duration_ms"`
		Retries    int     `json:"retries"`
	}

	// cachedSummary represents run counters in JSON format for caching.
	cachedSummary struct {
		Total         int     `json:"total"`
		Processed     int     `json:"processed"`
		Skipped       int     `json:"skipped"`
		Failed        int     `json:"failed"`
		AvgDurationMs float64 `json:"avg_duration_ms"`
		SuccessRate   float64 `json:"success_rate"`
	}

	// cachedRunReport represents a finished run in JSON format for caching.
	cachedRunReport struct {
		RunID      string         `json:"run_id"`
		StartedAt  time.Time      `json:"started_at"`
		FinishedAt time.Time      `json:"finished_at"`
		Summary    cachedSummary  `json:"summary"`
		Results    []cachedResult `json:"results"`
	}

	// cachedExercise represents a catalog entry in JSON format for caching.
	cachedExercise struct {
		ID     int      `json:"id"`
		Name   string   `json:"name"`
		Sets   int      `json:"sets"`
		Reps   int      `json:"reps"`
		Weight *float64 `json:"weight"`
	}

	cachedSnapshot struct {
		TakenAt   time.Time        `json:"taken_at"`
		Exercises []cachedExercise `json:"exercises"`
	}

	// ReportRepository implements the ReportStore interface using KeyDB/Redis.
	ReportRepository struct {
		client      ports.CacheClient
		snapshotTTL time.Duration
		logger      logger.Logger
	}
)

// NewReportRepository creates a new run report repository.
func NewReportRepository(client ports.CacheClient, snapshotTTL time.Duration, log logger.Logger) *ReportRepository {
	return &ReportRepository{
		client:      client,
		snapshotTTL: snapshotTTL,
		logger:      log,
	}
}

// SaveReport stores the latest run report.
func (r *ReportRepository) SaveReport(ctx context.Context, report *model.RunReport) error {
	if err := r.client.SetJSON(ctx, lastRunKey, r.toCachedReport(report), 0); err != nil {
		return fmt.Errorf("setting last run report: %w", err)
	}

	return nil
}

// LastReport retrieves the most recent run report.
func (r *ReportRepository) LastReport(ctx context.Context) (*model.RunReport, error) {
	var cached cachedRunReport

	found, err := r.client.GetJSON(ctx, lastRunKey, &cached)
	if err != nil {
		return nil, fmt.Errorf("getting last run report: %w", err)
	}

	if !found {
		return nil, model.ErrReportNotFound
	}

	report, err := r.toDomainReport(cached)
	if err != nil {
		return nil, fmt.Errorf("converting cached run report: %w", err)
	}

	return report, nil
}

// SaveSnapshot caches the verified exercise catalog for downstream readers.
func (r *ReportRepository) SaveSnapshot(ctx context.Context, exercises []model.Exercise) error {
	snapshot := cachedSnapshot{
		TakenAt:   time.Now().UTC(),
		Exercises: make([]cachedExercise, len(exercises)),
	}

	for index, exercise := range exercises {
		snapshot.Exercises[index] = cachedExercise{
			ID:     exercise.ID,
			Name:   exercise.Name,
			Sets:   exercise.Sets,
			Reps:   exercise.Reps,
			Weight: exercise.Weight,
		}
	}

	if err := r.client.SetJSON(ctx, snapshotKey, snapshot, r.snapshotTTL); err != nil {
		return fmt.Errorf("setting exercise snapshot: %w", err)
	}

	return nil
}

func (r *ReportRepository) toCachedReport(report *model.RunReport) cachedRunReport {
	results := make([]cachedResult, len(report.Results))
	for index, result := range report.Results {
		results[index] = cachedResult{
			ExerciseID: result.ExerciseID,
			Outcome:    result.Outcome.String(),
			Message:    result.Message,
			DurationMs: result.Duration.Seconds() * 1000,
			Retries:    result.Retries,
		}
	}

	return cachedRunReport{
		RunID:      report.RunID.String(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Summary: cachedSummary{
			Total:         report.Summary.Total,
			Processed:     report.Summary.Processed,
			Skipped:       report.Summary.Skipped,
			Failed:        report.Summary.Failed,
			AvgDurationMs: report.Summary.AvgDurationMs,
			SuccessRate:   report.Summary.SuccessRate,
		},
		Results: results,
	}
}

func (r *ReportRepository) toDomainReport(cached cachedRunReport) (*model.RunReport, error) {
	runID, err := model.ParseRunID(cached.RunID)
	if err != nil {
		return nil, fmt.Errorf("parsing run ID: %w", err)
	}

	results := make([]model.RefreshResult, len(cached.Results))
	for index, result := range cached.Results {
		outcome, err := model.ParseOutcome(result.Outcome)
		if err != nil {
			return nil, fmt.Errorf("parsing outcome at index %d: %w", index, err)
		}

		results[index] = model.RefreshResult{
			ExerciseID: result.ExerciseID,
			Outcome:    outcome,
			Message:    result.Message,
			Duration:   time.Duration(result.DurationMs * float64(time.Millisecond)),
			Retries:    result.Retries,
		}
	}

	return &model.RunReport{
		RunID:      runID,
		StartedAt:  cached.StartedAt,
		FinishedAt: cached.FinishedAt,
		Summary: model.RunSummary{
			Total:         cached.Summary.Total,
			Processed:     cached.Summary.Processed,
			Skipped:       cached.Summary.Skipped,
			Failed:        cached.Summary.Failed,
			AvgDurationMs: cached.Summary.AvgDurationMs,
			SuccessRate:   cached.Summary.SuccessRate,
		},
		Results: results,
	}, nil
}
