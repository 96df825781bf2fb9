package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
)

// AccessLogger emits one structured record per request. Health probe noise is
// filtered out upstream by HealthCheckFilter.
func AccessLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ShouldSkipAccessLog(r.Context()) {
				next.ServeHTTP(w, r)

				return
			}

			start := time.Now()
			wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			reqLogger := log.WithContext(r.Context()).
				With().
				Str("component", "ops_http").
				Logger()

			event := reqLogger.Info()
			if wrapped.Status() >= http.StatusInternalServerError {
				event = reqLogger.Error()
			} else if wrapped.Status() >= http.StatusBadRequest {
				event = reqLogger.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Int("status", wrapped.Status()).
				Int("bytes", wrapped.BytesWritten()).
				Int64("duration_ms", duration.Milliseconds()).
				Send()
		})
	}
}
