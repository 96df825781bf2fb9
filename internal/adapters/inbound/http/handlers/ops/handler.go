// Package ops exposes the internal operations endpoints: liveness and
// readiness probes plus a status report over the last refresh run. These
// endpoints are meant for an internal port, never the public network.
package ops

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/queries"
)

const (
	contentTypeHeader = "Content-Type"
	applicationJSON   = "application/json"

	statusDown           = "down"
	breakerStatusUnknown = "unknown"
)

// BreakerStateReporter reports the catalog circuit breaker state for the
// status endpoint.
type BreakerStateReporter interface {
	BreakerState() string
}

type Handler struct {
	app     *usecases.Application
	breaker BreakerStateReporter
}

func NewHandler(app *usecases.Application, breaker BreakerStateReporter) *Handler {
	return &Handler{
		app:     app,
		breaker: breaker,
	}
}

type livenessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

type dependencyCheckResponse struct {
	Status      string    `json:"status"`
	LatencyMs   uint64    `json:"latency_ms"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked"`
	Error       string    `json:"error,omitempty"`
}

type readinessResponse struct {
	Status    string                             `json:"status"`
	Timestamp time.Time                          `json:"timestamp"`
	Version   string                             `json:"version,omitempty"`
	Checks    map[string]dependencyCheckResponse `json:"checks,omitempty"`
}

type refreshResultResponse struct {
	ExerciseID int     `json:"exercise_id"`
	Outcome    string  `json:"outcome"`
	Message    string  `json:"message"`
	DurationMs float64 `json:"duration_ms"`
	Retries    int     `json:"retries"`
}

type runSummaryResponse struct {
	Total         int     `json:"total"`
	Processed     int     `json:"processed"`
	Skipped       int     `json:"skipped"`
	Failed        int     `json:"failed"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	SuccessRate   float64 `json:"success_rate"`
}

type lastRunResponse struct {
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Summary    runSummaryResponse      `json:"summary"`
	Results    []refreshResultResponse `json:"results"`
}

type storeStatsResponse struct {
	Kind           string `json:"kind"`
	ProcessedCount int    `json:"processed_count"`
	TTLSeconds     int64  `json:"ttl_seconds,omitempty"`
}

type statusResponse struct {
	Timestamp      time.Time          `json:"timestamp"`
	LastRun        *lastRunResponse   `json:"last_run"`
	Store          storeStatsResponse `json:"store"`
	CatalogBreaker string             `json:"catalog_breaker"`
}

// Liveness reports whether the process is up.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchLiveness.Execute(r.Context(), queries.FetchLivenessQuery{})
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, livenessResponse{
			Status:    statusDown,
			Timestamp: time.Now().UTC(),
		})

		return
	}

	writeJSONResponse(w, http.StatusOK, livenessResponse{
		Status:    string(result.Status),
		Timestamp: result.Timestamp,
		Version:   result.Version,
	})
}

// Readiness reports dependency health. A degraded store still answers 200;
// the refresher keeps working on the in-process fallback. Only a dead
// workout API takes the service out of rotation.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchReadiness.Execute(r.Context(), queries.FetchReadinessQuery{})
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, readinessResponse{
			Status:    statusDown,
			Timestamp: time.Now().UTC(),
		})

		return
	}

	httpStatus := http.StatusOK
	if result.Status == model.HealthStatusDown {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]dependencyCheckResponse, len(result.Checks))
	for name, check := range result.Checks {
		checks[name] = dependencyCheckResponse{
			Status:      string(check.Status),
			LatencyMs:   check.LatencyMs,
			Message:     check.Message,
			LastChecked: check.LastChecked,
			Error:       check.Error,
		}
	}

	writeJSONResponse(w, httpStatus, readinessResponse{
		Status:    string(result.Status),
		Timestamp: result.Timestamp,
		Version:   result.Version,
		Checks:    checks,
	})
}

// Status reports the last refresh run, the idempotency store and the catalog
// circuit breaker in one payload.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Queries.StoreStats.Execute(r.Context(), queries.StoreStatsQuery{})
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"error": "reading store stats: " + err.Error(),
		})

		return
	}

	var lastRun *lastRunResponse

	report, err := h.app.Queries.LastRun.Execute(r.Context(), queries.LastRunQuery{})
	switch {
	case errors.Is(err, model.ErrReportNotFound):
		// No run has completed yet, report status without one.
	case err != nil:
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"error": "reading last run: " + err.Error(),
		})

		return
	default:
		lastRun = toLastRunResponse(report)
	}

	breakerState := breakerStatusUnknown
	if h.breaker != nil {
		breakerState = h.breaker.BreakerState()
	}

	writeJSONResponse(w, http.StatusOK, statusResponse{
		Timestamp: time.Now().UTC(),
		LastRun:   lastRun,
		Store: storeStatsResponse{
			Kind:           stats.Kind.String(),
			ProcessedCount: stats.ProcessedCount,
			TTLSeconds:     int64(stats.TTL.Seconds()),
		},
		CatalogBreaker: breakerState,
	})
}

func toLastRunResponse(report *model.RunReport) *lastRunResponse {
	results := make([]refreshResultResponse, 0, len(report.Results))
	for _, result := range report.Results {
		results = append(results, refreshResultResponse{
			ExerciseID: result.ExerciseID,
			Outcome:    result.Outcome.String(),
			Message:    result.Message,
			DurationMs: float64(result.Duration) / float64(time.Millisecond),
			Retries:    result.Retries,
		})
	}

	return &lastRunResponse{
		RunID:      report.RunID.String(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Summary: runSummaryResponse{
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

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
