//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

//counterfeiter:generate -o ../mocks/exercise_source.go . ExerciseSource

import (
	"context"

	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
)

type (
	CatalogLister interface {
		// ListExercises retrieves the exercise catalog from the workout API.
		ListExercises(ctx context.Context) ([]model.Exercise, error)
	}

	ExerciseVerifier interface {
		// VerifyExercise re-validates a single exercise against the workout API.
		// Returns model.ErrExerciseNotFound when the API no longer knows the id.
		VerifyExercise(ctx context.Context, id int) (*model.Exercise, error)
	}

	// ExerciseSource defines the interface for the upstream exercise catalog.
	ExerciseSource interface {
		CatalogLister
		ExerciseVerifier
	}
)
