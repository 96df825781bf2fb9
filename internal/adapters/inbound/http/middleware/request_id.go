package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
)

const RequestIDHeader = "X-Request-Id"

// RequestID tags every request with an identifier and stores it where the
// logger picks it up, so ops requests and refresh runs share one log trail.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := logger.WithRequestID(r.Context(), requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(logger.ContextKeyRequestID).(string); ok {
		return id
	}

	return ""
}
