package runtime

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/hashicorp/vault/api"

	inboundhttp "github.com/fitsync/svc-exercise-refresh/internal/adapters/inbound/http"
	"github.com/fitsync/svc-exercise-refresh/internal/adapters/outbound/workoutapi"
	"github.com/fitsync/svc-exercise-refresh/internal/adapters/repos"
	"github.com/fitsync/svc-exercise-refresh/internal/adapters/services"
	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/infrastructure"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases"
	"github.com/fitsync/svc-exercise-refresh/pkg/decorator"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics/noop"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics/otelclient"
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithLogger(),
		WithSecretsRepository(),
		WithConfigLoader(ctx),
		WithMetrics(),
		WithTracing(),
		WithKeydb(),
		WithRepositories(),
		WithExerciseService(),
		WithHealthService(),
		WithApplication(),
		WithOpsServer(),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

func WithSecretsRepository() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled {
			return nil
		}

		vaultConfig := api.DefaultConfig()
		vaultConfig.Address = d.config.SecretsStorage.Address
		vaultConfig.Timeout = d.config.SecretsStorage.Timeout

		if d.config.SecretsStorage.TLSSkipVerify {
			vaultConfig.HttpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}

		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return fmt.Errorf("creating Vault client: %w", err)
		}

		if d.config.SecretsStorage.Namespace != "" {
			client.SetNamespace(d.config.SecretsStorage.Namespace)
		}

		d.repos.secretsRepo = repos.NewVaultRepository(client)

		return nil
	}
}

// WithConfigLoader pulls secrets into the configuration. A failure here is
// not fatal: the refresher can still run on environment configuration alone.
func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled || d.repos.secretsRepo == nil {
			return nil
		}

		loader := config.NewLoader(d.config, d.repos.secretsRepo, 0)

		version, err := loader.Load(ctx, d.repos.secretsRepo, d.config)
		if err != nil {
			d.infra.logger.Warn().
				Err(err).
				Msg("loading secrets failed, continuing with environment configuration")

			return nil
		}

		d.configLoader = config.NewLoader(d.config, d.repos.secretsRepo, version)

		return nil
	}
}

func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		client := otelclient.NewMetricsClient(d.config.App.ServiceName)

		d.infra.metricsClient = client
		d.cleanupFuncs["metrics"] = client.Shutdown

		return nil
	}
}

func WithTracing() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Traces.Enabled {
			d.infra.tracerProvider = infrastructure.NewNoopTracerProvider()

			return nil
		}

		tp, shutdown, err := infrastructure.NewTracerProvider(d.config.App, d.config.Telemetry)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.cleanupFuncs["tracer"] = shutdown

		return nil
	}
}

// WithKeydb constructs the shared store client. Construction only fails on
// broken configuration; an unreachable store is handled per operation by the
// repositories' in-process fallback.
func WithKeydb() DependencyOption {
	return func(d *dependencies) error {
		client, err := infrastructure.NewKeydbClient(d.config.Keydb, d.infra.logger)
		if err != nil {
			return fmt.Errorf("creating keydb client: %w", err)
		}

		d.infra.cacheClient = client
		d.cleanupFuncs["keydb"] = func(context.Context) error {
			return client.Close()
		}

		return nil
	}
}

func WithRepositories() DependencyOption {
	return func(d *dependencies) error {
		d.repos.idempotency = repos.NewIdempotencyRepository(
			d.infra.cacheClient,
			d.config.Refresh.IdempotencyTTL,
			d.infra.logger,
		)
		d.repos.reports = repos.NewReportRepository(
			d.infra.cacheClient,
			d.config.Refresh.SnapshotTTL,
			d.infra.logger,
		)

		store, err := repos.NewRateLimitStore(d.infra.cacheClient)
		if err != nil {
			return fmt.Errorf("creating rate limit store: %w", err)
		}

		d.repos.rateLimitStore = store

		return nil
	}
}

func WithExerciseService() DependencyOption {
	return func(d *dependencies) error {
		apiClient := workoutapi.NewClient(d.config.WorkoutAPI, d.infra.logger)
		d.services.prober = apiClient

		svc, err := services.NewExerciseService(
			apiClient,
			d.config.WorkoutAPI,
			d.repos.rateLimitStore,
			d.infra.logger,
		)
		if err != nil {
			return fmt.Errorf("creating exercise service: %w", err)
		}

		d.services.exercises = svc

		return nil
	}
}

func WithHealthService() DependencyOption {
	return func(d *dependencies) error {
		d.services.healthChecker = services.NewHealthService(d.infra.cacheClient, d.services.prober)

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.apps.app = usecases.NewApplication(
			d.services.exercises,
			d.repos.idempotency,
			d.repos.reports,
			d.services.healthChecker,
			d.config.Refresh,
			d.infra.logger,
			d.infra.metricsClient,
			d.infra.tracerProvider,
		)

		// Counting claims means scanning the store, so polled status
		// endpoints read a briefly cached count instead.
		if ttl := d.config.Refresh.StatsCacheTTL; ttl > 0 {
			d.apps.app.Queries.StoreStats = decorator.NewQueryCachingDecorator(
				d.apps.app.Queries.StoreStats,
				repos.NewStoreStatsCacheAdapter(ttl),
				decorator.CacheConfig{Enabled: true, TTL: ttl},
			)
		}

		return nil
	}
}

func WithOpsServer() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.OpsHTTPServer.Enabled {
			return nil
		}

		router := inboundhttp.NewOpsRouter(inboundhttp.OpsRouterConfig{
			App:     d.apps.app,
			Breaker: d.services.exercises,
			Logger:  d.infra.logger,
			Config:  d.config,
		})

		server := &http.Server{
			Handler:      router,
			ReadTimeout:  d.config.OpsHTTPServer.ReadTimeout,
			WriteTimeout: d.config.OpsHTTPServer.WriteTimeout,
			IdleTimeout:  d.config.OpsHTTPServer.IdleTimeout,
		}

		d.infra.opsHTTPServer = server
		d.cleanupFuncs["ops_http_server"] = server.Shutdown

		return nil
	}
}
