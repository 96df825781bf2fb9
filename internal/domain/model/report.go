package model

import (
	"time"

	"github.com/google/uuid"
)

type RunID struct {
	uuid.UUID
}

func NewRunID() RunID {
	return RunID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseRunID(s string) (RunID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RunID{}, err
	}

	return RunID{UUID: id}, nil
}

func (r RunID) String() string {
	return r.UUID.String()
}

func (r RunID) IsZero() bool {
	return r.UUID == uuid.Nil
}

type RunReport struct {
	RunID      RunID
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    RunSummary
	Results    []RefreshResult
}

func NewRunReport(startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     NewRunID(),
		StartedAt: startedAt,
	}
}

func (r *RunReport) Complete(finishedAt time.Time, results []RefreshResult) {
	r.FinishedAt = finishedAt
	r.Results = results
	r.Summary = Summarize(results)
}

func (r *RunReport) Took() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type StoreKind string

const (
	StoreKindKeydb  StoreKind = "keydb"
	StoreKindMemory StoreKind = "memory"
)

func (k StoreKind) String() string {
	return string(k)
}

type StoreStats struct {
	Kind           StoreKind
	ProcessedCount int
	TTL            time.Duration
}
