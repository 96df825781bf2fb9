//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

//counterfeiter:generate -o ../mocks/cache_client.go . CacheClient

import (
	"context"
	"time"
)

// CacheClient defines the interface for the shared key-value store.
type CacheClient interface {
	// SetIfAbsent stores value under key only when the key does not exist yet.
	// Returns true when the write happened.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	// Returns the number of keys removed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Keys lists the keys matching the given pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// TTL reports the remaining time to live for key.
	// Returns zero when the key does not exist or carries no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// SetJSON marshals value and stores it under key with the given TTL.
	// A zero TTL applies the store's default expiry.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error

	// GetJSON retrieves key and unmarshals it into out.
	// Returns false when the key does not exist.
	GetJSON(ctx context.Context, key string, out any) (bool, error)

	// IsHealthy checks if the store is available.
	IsHealthy(ctx context.Context) bool

	// Close releases the underlying connection.
	Close() error
}
