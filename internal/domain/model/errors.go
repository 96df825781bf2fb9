package model

import "errors"

var (
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrCatalogUnavailable = errors.New("exercise catalog unavailable")
	ErrStoreUnavailable   = errors.New("idempotency store unavailable")
	ErrReportNotFound     = errors.New("run report not found")
)
