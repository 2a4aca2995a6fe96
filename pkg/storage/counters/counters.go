package counters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/edgestats/pkg/storage"
)

// Client handles the Redis daily counter cache. Each calendar day maps
// to one hash keyed "analytics:YYYY-MM-DD" whose fields are monotonic
// counters (total_requests, total_bytes, cache_<status>, status_<code>).
type Client struct {
	client *redis.Client
	config storage.Config
}

// New creates a new counter cache client
func New(config storage.Config) (*Client, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	// Override with config values if provided
	if config.RedisPassword != "" {
		opts.Password = config.RedisPassword
	}
	if config.RedisDB >= 0 {
		opts.DB = config.RedisDB
	}
	if config.RedisMaxRetries > 0 {
		opts.MaxRetries = config.RedisMaxRetries
	}
	if config.RedisPoolSize > 0 {
		opts.PoolSize = config.RedisPoolSize
	}

	// Set connection timeouts
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

func key(day string) string {
	return storage.CounterKeyPrefix + day
}

// Increment applies a set of counter deltas to one day's bucket in a
// single pipeline and refreshes the bucket TTL. HINCRBY is atomic per
// field, so concurrent writers converge without coordination; the TTL
// always ends up counting from the most recent increment.
func (c *Client) Increment(ctx context.Context, day string, deltas map[string]int64) error {
	pipe := c.client.Pipeline()
	for field, n := range deltas {
		pipe.HIncrBy(ctx, key(day), field, n)
	}
	pipe.Expire(ctx, key(day), c.config.CounterTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("counter increment failed for %s: %w", day, err)
	}
	return nil
}

// Day returns all numeric counters recorded for a calendar day. Fields
// that do not parse as integers are skipped; a missing bucket yields an
// empty map, not an error.
func (c *Client) Day(ctx context.Context, day string) (map[string]int64, error) {
	fields, err := c.client.HGetAll(ctx, key(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("counter read failed for %s: %w", day, err)
	}

	out := make(map[string]int64, len(fields))
	for name, raw := range fields {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out[name] = n
		}
	}
	return out, nil
}

// DeleteDay removes a day's bucket. Returns true if a key was deleted.
func (c *Client) DeleteDay(ctx context.Context, day string) (bool, error) {
	n, err := c.client.Del(ctx, key(day)).Result()
	if err != nil {
		return false, fmt.Errorf("counter delete failed for %s: %w", day, err)
	}
	return n > 0, nil
}

// TTL returns the remaining time to live of a day's bucket
func (c *Client) TTL(ctx context.Context, day string) (time.Duration, error) {
	return c.client.TTL(ctx, key(day)).Result()
}

// Ping checks Redis connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetClient returns the underlying Redis client for health checks
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// GetPoolStats returns connection pool statistics
func (c *Client) GetPoolStats() *redis.PoolStats {
	return c.client.PoolStats()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
