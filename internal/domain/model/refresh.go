package model

import (
	"fmt"
	"time"
)

type RefreshResult struct {
	ExerciseID int
	Outcome    Outcome
	Message    string
	Duration   time.Duration
	Retries    int
}

func NewProcessedResult(exerciseID int, took time.Duration, retries int) RefreshResult {
	return RefreshResult{
		ExerciseID: exerciseID,
		Outcome:    OutcomeProcessed,
		Message:    "Refreshed successfully",
		Duration:   took,
		Retries:    retries,
	}
}

func NewSkippedResult(exerciseID int, took time.Duration) RefreshResult {
	return RefreshResult{
		ExerciseID: exerciseID,
		Outcome:    OutcomeSkipped,
		Message:    "Skipped (already processed today)",
		Duration:   took,
	}
}

func NewFailedResult(exerciseID, attempts int, lastErr error, took time.Duration, retries int) RefreshResult {
	return RefreshResult{
		ExerciseID: exerciseID,
		Outcome:    OutcomeFailed,
		Message:    fmt.Sprintf("Failed after %d attempts: %v", attempts, lastErr),
		Duration:   took,
		Retries:    retries,
	}
}

func (r RefreshResult) Succeeded() bool {
	return r.Outcome != OutcomeFailed
}

type RunSummary struct {
	Total         int
	Processed     int
	Skipped       int
	Failed        int
	AvgDurationMs float64
	SuccessRate   float64
}

func Summarize(results []RefreshResult) RunSummary {
	summary := RunSummary{Total: len(results)}

	var processedTime time.Duration

	for _, result := range results {
		switch result.Outcome {
		case OutcomeProcessed:
			summary.Processed++
			processedTime += result.Duration
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
		}
	}

	if summary.Processed > 0 {
		summary.AvgDurationMs = processedTime.Seconds() * 1000 / float64(summary.Processed)
	}

	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Processed+summary.Skipped) / float64(summary.Total) * 100
	}

	return summary
}

func (s RunSummary) Succeeded() bool {
	return s.Failed == 0
}
