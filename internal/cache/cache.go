package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// Cache wraps Redis helpers for JSON payloads. A nil Cache or client is a no-op cache that
// always misses.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New constructs a cache helper. Keys are namespaced with prefix.
func New(client *redis.Client, ttl time.Duration, prefix string) *Cache {
	return &Cache{client: client, ttl: ttl, prefix: prefix}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

// DeleteByPrefix removes every key starting with keyPrefix and returns how many were deleted.
func (c *Cache) DeleteByPrefix(ctx context.Context, keyPrefix string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	var (
		cursor  uint64
		deleted int64
	)
	match := c.prefix + keyPrefix + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
