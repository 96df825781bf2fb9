package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitsync/svc-exercise-refresh/internal/config"
	appLogger "github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type KeydbClient struct {
	client *redis.Client
	logger appLogger.Logger
	config config.Keydb
}

func NewKeydbClient(config config.Keydb, logger appLogger.Logger) (*KeydbClient, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing keydb URL: %w", err)
	}

	if config.Password != "" {
		opts.Password = config.Password
	}

	opts.PoolSize = int(config.PoolSize)
	opts.MinIdleConns = int(config.MinIdleConns)
	opts.DialTimeout = config.DialTimeout
	opts.ReadTimeout = config.ReadTimeout
	opts.WriteTimeout = config.WriteTimeout
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = int(config.MaxRetries)

	return &KeydbClient{
		client: redis.NewClient(opts),
		logger: logger,
		config: config,
	}, nil
}

func (c *KeydbClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *KeydbClient) Close() error {
	return c.client.Close()
}

func (c *KeydbClient) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	startTime := time.Now()
	var err error

	defer func() {
		duration := time.Since(startTime)

		c.logger.Debug().
			Str("key", key).
			Str("expiry", ttl.String()).
			Int64("duration_ms", duration.Milliseconds()).
			Bool("success", err == nil).
			Msg("keydb setnx operation")
	}()

	acquired, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setting key if absent: %w", err)
	}

	return acquired, nil
}

func (c *KeydbClient) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	startTime := time.Now()
	var err error

	defer func() {
		duration := time.Since(startTime)

		c.logger.Debug().
			Int("keys", len(keys)).
			Int64("duration_ms", duration.Milliseconds()).
			Bool("success", err == nil).
			Msg("keydb delete operation")
	}()

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("deleting keys: %w", err)
	}

	return removed, nil
}

// Keys collects every key matching pattern using SCAN so large stores are
// never blocked the way KEYS would.
func (c *KeydbClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)

	for {
		page, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning keys: %w", err)
		}

		keys = append(keys, page...)

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (c *KeydbClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	result, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("getting TTL: %w", err)
	}

	// Negative replies mean a missing key or one without expiry.
	if result < 0 {
		return 0, nil
	}

	return result, nil
}

func (c *KeydbClient) GetInt64(ctx context.Context, key string) (int64, time.Time, error) {
	val, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// -1 is the GCRA store contract for a missing key.
			return -1, time.Now(), nil
		}

		return 0, time.Time{}, err
	}

	return val, time.Now(), nil
}

// SetInt64NX sets an int64 value if the key doesn't exist.
func (c *KeydbClient) SetInt64NX(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

// CompareAndSwapInt64 atomically updates a value if it matches the expected old value.
func (c *KeydbClient) CompareAndSwapInt64(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error) {
	script := redis.NewScript(`
		local current = redis.call("GET", KEYS[1])
		if current == false or tonumber(current) ~= tonumber(ARGV[1]) then
			return 0
		end
		redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
		return 1
	`)

	result, err := script.Run(ctx, c.client, []string{key}, old, new, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

func (c *KeydbClient) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.DefaultExpiry
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling value: %w", err)
	}

	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)

		c.logger.Debug().
			Str("key", key).
			Str("expiry", ttl.String()).
			Int64("duration_ms", duration.Milliseconds()).
			Bool("success", err == nil).
			Msg("keydb set operation")
	}()

	if err = c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("setting key: %w", err)
	}

	return nil
}

func (c *KeydbClient) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	startTime := time.Now()

	data, err := c.client.Get(ctx, key).Bytes()
	duration := time.Since(startTime)

	c.logger.Debug().
		Str("key", key).
		Int64("duration_ms", duration.Milliseconds()).
		Bool("hit", err == nil).
		Msg("keydb get operation")

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("getting key: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshalling value: %w", err)
	}

	return true, nil
}

// IsHealthy checks if the store is available.
func (c *KeydbClient) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := c.Ping(ctx)

	return err == nil
}
