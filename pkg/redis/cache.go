package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLs used by the readers of computed results
const (
	TTLShort  = time.Minute      // dashboard
	TTLMedium = 10 * time.Minute // índice global
)

// IndexKey identifies the cached composite index of one line and month
func IndexKey(lineID int64, year, month int) string {
	return fmt.Sprintf("indice:%d:%04d-%02d", lineID, year, month)
}

// DashboardKey identifies the cached dashboard summary of one month
func DashboardKey(year, month int) string {
	return fmt.Sprintf("dashboard:%04d-%02d", year, month)
}

// Cache stores JSON documents under "<prefix>:cache:<key>".
// With a disabled client every read misses and every write is dropped.
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache over client
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + ":cache:" + key
}

// Get decodes the value at key into dest and reports whether it was there
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	raw, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set encodes value and stores it for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Redis().Set(ctx, c.fullKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete unlinks keys; missing keys are not an error
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.client.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.fullKey(k))
	}
	if err := c.client.Redis().Unlink(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
