package config

import (
	"fmt"
	"time"
)

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

const (
	Development = 1 << iota
	Sandbox
	Staging
	Production
)

type (
	ServiceConfig struct {
		App            App            `json:"app"`
		SecretsStorage SecretsStorage `json:"secrets_storage"`
		WorkoutAPI     WorkoutAPI     `json:"workout_api"`
		Keydb          Keydb          `json:"keydb"`
		Refresh        Refresh        `json:"refresh"`
		OpsHTTPServer  OpsHTTPServer  `json:"ops_http_server"`
		Logging        Logging        `json:"logging"`
		Telemetry      Telemetry      `json:"telemetry"`
	}

	App struct {
		ServiceName    string      `envconfig:"APP_SERVICE_NAME" default:"svc-exercise-refresh" json:"service_name"`
		ServiceVersion string      `json:"service_version,omitempty"`
		CommitSHA      string      `json:"commit_sha,omitempty"`
		Env            Environment `json:"environment"`
	}

	Environment struct {
		Name string `envconfig:"APP_ENVIRONMENT" default:"development" json:"env"`
	}

	SecretsStorage struct {
		Enabled       bool          `envconfig:"VAULT_ENABLED" default:"false" json:"enabled"`
		Address       string        `envconfig:"VAULT_ADDRESS" default:"http://vault:8200" json:"address"`
		Token         string        `envconfig:"VAULT_TOKEN" default:"" json:"token,omitempty"`
		RoleID        string        `envconfig:"VAULT_ROLE_ID" default:"" json:"role_id,omitempty"`
		SecretID      string        `envconfig:"VAULT_SECRET_ID" default:"" json:"secret_id,omitempty"`
		AuthMethod    string        `envconfig:"VAULT_AUTH_METHOD" default:"token" json:"auth_method"`
		MountPath     string        `envconfig:"VAULT_MOUNT_PATH" default:"svc-exercise-refresh" json:"mount_path"`
		Namespace     string        `envconfig:"VAULT_NAMESPACE" default:"" json:"namespace,omitempty"`
		Timeout       time.Duration `envconfig:"VAULT_TIMEOUT" default:"30s" json:"timeout"`
		MaxRetries    uint          `envconfig:"VAULT_MAX_RETRIES" default:"3" json:"max_retries"`
		TLSSkipVerify bool          `envconfig:"VAULT_TLS_SKIP_VERIFY" default:"false" json:"tls_skip_verify"`
		PollInterval  time.Duration `envconfig:"VAULT_POLL_INTERVAL" default:"24h" json:"poll_interval"`
	}

	WorkoutAPI struct {
		BaseURL        string               `envconfig:"WORKOUT_API_BASE_URL" default:"http://workout-api:8000" json:"base_url"`
		Token          string               `envconfig:"WORKOUT_API_TOKEN" default:"" json:"token,omitempty"`
		Timeout        time.Duration        `envconfig:"WORKOUT_API_TIMEOUT" default:"10s" json:"timeout"`
		VerifyRPS      uint                 `envconfig:"WORKOUT_API_VERIFY_RPS" default:"0" json:"verify_rps"`
		VerifyBurst    uint                 `envconfig:"WORKOUT_API_VERIFY_BURST" default:"0" json:"verify_burst"`
		CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
	}

	CircuitBreakerConfig struct {
		Enabled          bool          `envconfig:"CATALOG_CB_ENABLED" default:"true" json:"enabled"`
		MaxRequests      uint          `envconfig:"CATALOG_CB_MAX_REQUESTS" default:"5" json:"max_requests"`
		Interval         time.Duration `envconfig:"CATALOG_CB_INTERVAL" default:"60s" json:"interval"`
		Timeout          time.Duration `envconfig:"CATALOG_CB_TIMEOUT" default:"30s" json:"timeout"`
		FailureThreshold uint          `envconfig:"CATALOG_CB_FAILURE_THRESHOLD" default:"5" json:"failure_threshold"`
	}

	Keydb struct {
		URL           string        `envconfig:"KEYDB_URL" default:"redis://keydb:6379" json:"url"`
		Password      string        `envconfig:"KEYDB_PASSWORD" default:"" json:"password,omitempty"`
		PoolSize      uint          `envconfig:"KEYDB_POOL_SIZE" default:"10" json:"pool_size"`
		MinIdleConns  uint          `envconfig:"KEYDB_MIN_IDLE_CONNS" default:"3" json:"min_idle_conns"`
		DialTimeout   time.Duration `envconfig:"KEYDB_DIAL_TIMEOUT" default:"5s" json:"dial_timeout"`
		ReadTimeout   time.Duration `envconfig:"KEYDB_READ_TIMEOUT" default:"3s" json:"read_timeout"`
		WriteTimeout  time.Duration `envconfig:"KEYDB_WRITE_TIMEOUT" default:"3s" json:"write_timeout"`
		PoolTimeout   time.Duration `envconfig:"KEYDB_POOL_TIMEOUT" default:"5s" json:"pool_timeout"`
		MaxRetries    uint          `envconfig:"KEYDB_MAX_RETRIES" default:"3" json:"max_retries"`
		DefaultExpiry time.Duration `envconfig:"KEYDB_DEFAULT_EXPIRY" default:"24h" json:"default_expiry"`
	}

	Refresh struct {
		MaxConcurrency int           `envconfig:"REFRESH_MAX_CONCURRENCY" default:"3" json:"max_concurrency"`
		MaxRetries     int           `envconfig:"REFRESH_MAX_RETRIES" default:"3" json:"max_retries"`
		RetryBaseDelay time.Duration `envconfig:"REFRESH_RETRY_BASE_DELAY" default:"1s" json:"retry_base_delay"`
		IdempotencyTTL time.Duration `envconfig:"REFRESH_IDEMPOTENCY_TTL" default:"1h" json:"idempotency_ttl"`
		Interval       time.Duration `envconfig:"REFRESH_INTERVAL" default:"0" json:"interval"`
		CleanupEnabled bool          `envconfig:"REFRESH_CLEANUP_ENABLED" default:"true" json:"cleanup_enabled"`
		SnapshotTTL    time.Duration `envconfig:"REFRESH_SNAPSHOT_TTL" default:"24h" json:"snapshot_ttl"`
		// StatsCacheTTL bounds how long status endpoints may serve a cached
		// claim count instead of scanning the store. Zero disables the cache.
		StatsCacheTTL time.Duration `envconfig:"REFRESH_STATS_CACHE_TTL" default:"10s" json:"stats_cache_ttl"`
	}

	OpsHTTPServer struct {
		Enabled         bool          `envconfig:"HEALTH_SERVER_ENABLED" default:"true" json:"enabled"`
		Host            string        `envconfig:"HEALTH_SERVER_HOST" default:"0.0.0.0" json:"host"`
		Port            uint          `envconfig:"HEALTH_SERVER_PORT" default:"8002" json:"port"`
		ReadTimeout     time.Duration `envconfig:"HEALTH_READ_TIMEOUT" default:"15s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"HEALTH_WRITE_TIMEOUT" default:"15s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"HEALTH_IDLE_TIMEOUT" default:"60s" json:"idle_timeout"`
		ShutdownTimeout time.Duration `envconfig:"HEALTH_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
	}

	Logging struct {
		Level     string    `envconfig:"LOG_LEVEL" default:"info" json:"level"`
		Format    string    `envconfig:"LOG_FORMAT" default:"json" json:"format"`
		AccessLog AccessLog `json:"access_log"`
	}

	AccessLog struct {
		Enabled         bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
	}

	Telemetry struct {
		Enabled      bool   `envconfig:"OTEL_ENABLED" default:"false" json:"enabled"`
		ExporterType string `envconfig:"OTEL_EXPORTER" default:"grpc" json:"exporter_type"`

		OtelGRPCHost       string `envconfig:"OTEL_HOST" json:"otel_grpc_host"`
		OtelGRPCPort       string `envconfig:"OTEL_PORT" default:"4317" json:"otel_grpc_port"`
		OtelProductCluster string `envconfig:"OTEL_PRODUCT_CLUSTER" json:"otel_product_cluster"`

		Metrics Metrics `json:"metrics"`
		Traces  Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1.0" json:"sampler_ratio"`
	}
)

func (c *ServiceConfig) GetEnvironment() int {
	switch c.App.Env.Name {
	case "production", "prod":
		return Production
	case "staging", "stg":
		return Staging
	case "sandbox", "sbx":
		return Sandbox
	default:
		return Development
	}
}

func (c *ServiceConfig) IsProduction() bool {
	return c.GetEnvironment() == Production
}

// Validate checks the invariants the refresh pipeline depends on.
func (c *ServiceConfig) Validate() error {
	if c.WorkoutAPI.BaseURL == "" {
		return fmt.Errorf("workout API base URL must not be empty")
	}

	if c.Refresh.MaxConcurrency < 1 {
		return fmt.Errorf("refresh max concurrency must be positive, got %d", c.Refresh.MaxConcurrency)
	}

	if c.Refresh.MaxRetries < 0 {
		return fmt.Errorf("refresh max retries must not be negative, got %d", c.Refresh.MaxRetries)
	}

	if c.Refresh.RetryBaseDelay < 0 {
		return fmt.Errorf("refresh retry base delay must not be negative, got %s", c.Refresh.RetryBaseDelay)
	}

	if c.Refresh.IdempotencyTTL <= 0 {
		return fmt.Errorf("refresh idempotency TTL must be positive, got %s", c.Refresh.IdempotencyTTL)
	}

	if c.Refresh.StatsCacheTTL < 0 {
		return fmt.Errorf("refresh stats cache TTL must not be negative, got %s", c.Refresh.StatsCacheTTL)
	}

	return nil
}
