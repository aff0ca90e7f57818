package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// GeoCache implements ports.CountryCache using Redis. Resolved IP-to-country
// results are cached so repeat attempts from the same address skip the
// external lookup entirely.
type GeoCache struct {
	client *goredis.Client
	prefix string
}

// NewGeoCache creates a new Redis-backed geolocation cache.
func NewGeoCache(client *goredis.Client) *GeoCache {
	return &GeoCache{
		client: client,
		prefix: "geo:",
	}
}

// Get retrieves a cached country code for an IP address.
// Returns "" with no error when the address has not been cached.
func (c *GeoCache) Get(ctx context.Context, ip string) (string, error) {
	val, err := c.client.Get(ctx, c.prefix+ip).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis geo get: %w", err)
	}
	return val, nil
}

// Set stores a resolved country code for an IP address with TTL.
func (c *GeoCache) Set(ctx context.Context, ip, country string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+ip, country, ttl).Err(); err != nil {
		return fmt.Errorf("redis geo set: %w", err)
	}
	return nil
}
