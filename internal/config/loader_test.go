package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "sandbox")
	t.Setenv("WORKOUT_API_BASE_URL", "http://localhost:8000")
	t.Setenv("REFRESH_MAX_CONCURRENCY", "5")
	t.Setenv("REFRESH_MAX_RETRIES", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Init()
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "sandbox", cfg.App.Env.Name)
	assert.Equal(t, "http://localhost:8000", cfg.WorkoutAPI.BaseURL)
	assert.Equal(t, 5, cfg.Refresh.MaxConcurrency)
	assert.Equal(t, 2, cfg.Refresh.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestInit_DefaultValues(t *testing.T) {
	cfg, err := Init()
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// App defaults
	assert.Equal(t, "svc-exercise-refresh", cfg.App.ServiceName)

	// Refresh defaults
	assert.Equal(t, 3, cfg.Refresh.MaxConcurrency)
	assert.Equal(t, 3, cfg.Refresh.MaxRetries)
	assert.Equal(t, time.Second, cfg.Refresh.RetryBaseDelay)
	assert.Equal(t, time.Hour, cfg.Refresh.IdempotencyTTL)
	assert.Equal(t, time.Duration(0), cfg.Refresh.Interval)
	assert.True(t, cfg.Refresh.CleanupEnabled)

	// Upstream API defaults
	assert.Equal(t, "http://workout-api:8000", cfg.WorkoutAPI.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.WorkoutAPI.Timeout)
	assert.True(t, cfg.WorkoutAPI.CircuitBreaker.Enabled)

	// Store defaults
	assert.Equal(t, "redis://keydb:6379", cfg.Keydb.URL)

	// Ops server defaults
	assert.True(t, cfg.OpsHTTPServer.Enabled)
	assert.Equal(t, uint(8002), cfg.OpsHTTPServer.Port)

	// Vault defaults
	assert.False(t, cfg.SecretsStorage.Enabled)
	assert.Equal(t, "http://vault:8200", cfg.SecretsStorage.Address)
	assert.Equal(t, "token", cfg.SecretsStorage.AuthMethod)
	assert.Equal(t, "svc-exercise-refresh", cfg.SecretsStorage.MountPath)
}

func TestInit_RejectsInvalidConcurrency(t *testing.T) {
	t.Setenv("REFRESH_MAX_CONCURRENCY", "0")

	cfg, err := Init()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name        string
		mutate      func(cfg *ServiceConfig)
		expectError bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(_ *ServiceConfig) {},
		},
		{
			name: "empty base URL",
			mutate: func(cfg *ServiceConfig) {
				cfg.WorkoutAPI.BaseURL = ""
			},
			expectError: true,
		},
		{
			name: "zero concurrency",
			mutate: func(cfg *ServiceConfig) {
				cfg.Refresh.MaxConcurrency = 0
			},
			expectError: true,
		},
		{
			name: "negative retries",
			mutate: func(cfg *ServiceConfig) {
				cfg.Refresh.MaxRetries = -1
			},
			expectError: true,
		},
		{
			name: "zero retries is allowed",
			mutate: func(cfg *ServiceConfig) {
				cfg.Refresh.MaxRetries = 0
			},
		},
		{
			name: "negative base delay",
			mutate: func(cfg *ServiceConfig) {
				cfg.Refresh.RetryBaseDelay = -time.Second
			},
			expectError: true,
		},
		{
			name: "zero idempotency TTL",
			mutate: func(cfg *ServiceConfig) {
				cfg.Refresh.IdempotencyTTL = 0
			},
			expectError: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &ServiceConfig{
				WorkoutAPI: WorkoutAPI{BaseURL: "http://workout-api:8000"},
				Refresh: Refresh{
					MaxConcurrency: 3,
					MaxRetries:     3,
					RetryBaseDelay: time.Second,
					IdempotencyTTL: time.Hour,
				},
			}

			tc.mutate(cfg)

			err := cfg.Validate()

			if tc.expectError {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestGetEnvironment(t *testing.T) {
	cases := []struct {
		name     string
		env      string
		expected int
	}{
		{
			name:     "production",
			env:      "production",
			expected: Production,
		},
		{
			name:     "prod shorthand",
			env:      "prod",
			expected: Production,
		},
		{
			name:     "staging",
			env:      "staging",
			expected: Staging,
		},
		{
			name:     "sandbox",
			env:      "sandbox",
			expected: Sandbox,
		},
		{
			name:     "development default",
			env:      "development",
			expected: Development,
		},
		{
			name:     "unknown defaults to development",
			env:      "unknown",
			expected: Development,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &ServiceConfig{
				App: App{Env: Environment{Name: tc.env}},
			}

			assert.Equal(t, tc.expected, cfg.GetEnvironment())
		})
	}
}

func TestIsProduction(t *testing.T) {
	cases := []struct {
		name     string
		env      string
		expected bool
	}{
		{
			name:     "production returns true",
			env:      "production",
			expected: true,
		},
		{
			name:     "staging returns false",
			env:      "staging",
			expected: false,
		},
		{
			name:     "development returns false",
			env:      "development",
			expected: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &ServiceConfig{
				App: App{Env: Environment{Name: tc.env}},
			}

			assert.Equal(t, tc.expected, cfg.IsProduction())
		})
	}
}
