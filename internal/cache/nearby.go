package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NearbyPrefix namespaces locator cache entries.
const NearbyPrefix = "staff:nearby:"

// NearbyCache is the key-value contract the staff locator needs: read-through
// get, TTL-bounded set, and best-effort prefix invalidation on assignment.
type NearbyCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// NearbyKey builds the cache key for a locator query. Coordinates are rounded
// to four decimals (~11m) so nearby queries share entries.
func NearbyKey(lat, lng float64, category string, radiusKm float64) string {
	return fmt.Sprintf("%s%.4f:%.4f:%s:%.1f", NearbyPrefix, lat, lng, category, radiusKm)
}

type redisNearbyCache struct {
	client *redis.Client
}

// NewRedisNearbyCache wraps a redis client with JSON serialization.
func NewRedisNearbyCache(client *redis.Client) NearbyCache {
	return &redisNearbyCache{client: client}
}

func (c *redisNearbyCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisNearbyCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *redisNearbyCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
