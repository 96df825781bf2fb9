//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

//counterfeiter:generate -o ../mocks/report_store.go . ReportStore

import (
	"context"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
)

// ReportStore defines the interface for persisting refresh run outcomes.
type ReportStore interface {
	// SaveReport stores the latest run report.
	SaveReport(ctx context.Context, report *model.RunReport) error

	// LastReport retrieves the most recent run report.
	// Returns model.ErrReportNotFound when no run has completed yet.
	LastReport(ctx context.Context) (*model.RunReport, error)

	// SaveSnapshot caches the verified exercise catalog for downstream readers.
	SaveSnapshot(ctx context.Context, exercises []model.Exercise) error
}
