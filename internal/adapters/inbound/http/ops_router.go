package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fitsync/svc-exercise-refresh/internal/adapters/inbound/http/handlers/ops"
	"github.com/fitsync/svc-exercise-refresh/internal/adapters/inbound/http/middleware"
	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
)

// OpsRouterConfig holds dependencies for the operations router.
type OpsRouterConfig struct {
	App     *usecases.Application
	Breaker ops.BreakerStateReporter
	Logger  logger.Logger
	Config  *config.ServiceConfig
}

// NewOpsRouter creates a router for the internal operations endpoints.
// It is intended to run on a separate internal port.
func NewOpsRouter(cfg OpsRouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(chimiddleware.Timeout(cfg.Config.OpsHTTPServer.WriteTimeout))

	if cfg.Config.Logging.AccessLog.Enabled {
		healthFilter := middleware.NewHealthCheckFilter(cfg.Config.Logging.AccessLog.LogHealthChecks)

		router.Use(healthFilter.Middleware)
		router.Use(middleware.AccessLogger(cfg.Logger))

		cfg.Logger.Info().
			Bool("log_health_checks", cfg.Config.Logging.AccessLog.LogHealthChecks).
			Msg("structured access logging enabled")
	}

	handler := ops.NewHandler(cfg.App, cfg.Breaker)

	router.Get("/healthz", handler.Liveness)
	router.Get("/readyz", handler.Readiness)
	router.Get("/status", handler.Status)

	return router
}
