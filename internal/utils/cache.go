package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Version formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is a JSON read-through cache on Redis. A nil *Cache or one without a
// client is valid and never hits, so callers need no availability checks.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache wraps rdb; rdb may be nil
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.rdb != nil }

// Get retrieves a value from Redis and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// Set stores a value in Redis with the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Delete deletes a key from Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Del(ctx, key).Err()
}

// Version returns the current generation of a key namespace. Embedding it in
// keys lets Bump invalidate every page of a listing at once.
func (c *Cache) Version(ctx context.Context, namespace string) (string, error) {
	if !c.enabled() {
		return "0", nil
	}
	v, err := c.rdb.Get(ctx, namespace+":version").Result()
	if err == redis.Nil {
		return "0", nil
	} else if err != nil {
		return "", err
	}
	return v, nil
}

// Bump moves namespace to a new generation
func (c *Cache) Bump(ctx context.Context, namespace string) (string, error) {
	if !c.enabled() {
		return "0", nil
	}
	n, err := c.rdb.Incr(ctx, namespace+":version").Result()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}
