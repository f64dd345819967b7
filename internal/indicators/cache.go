package indicators

import (
	"context"
	"time"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/pkg/logger"
	"github.com/transmaint/backend/pkg/redis"
)

// Cache is the JSON cache the index reader uses; *redis.Cache implements it
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedIndex serves the global index from cache and drops the entry after each batch
// of the same period
type CachedIndex struct {
	engine *Engine
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedIndex wraps engine with cache
func NewCachedIndex(engine *Engine, cache Cache, ttl time.Duration, log *logger.Logger) *CachedIndex {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedIndex{engine: engine, cache: cache, ttl: ttl, logger: log}
}

// GlobalIndex returns the cached index or computes and stores it.
// Cache failures degrade to a direct computation.
func (c *CachedIndex) GlobalIndex(ctx context.Context, p contracts.Period) (*IndexResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := redis.IndexKey(p.LineID, p.Year, p.Month)

	var cached IndexResult
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Index cache read failed")
	}
	if hit {
		return &cached, nil
	}

	result, err := c.engine.GlobalIndex(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, result, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Index cache write failed")
	}
	return result, nil
}

// OnBatch implements BatchObserver
func (c *CachedIndex) OnBatch(ctx context.Context, report *BatchReport) {
	p := report.Period
	key := redis.IndexKey(p.LineID, p.Year, p.Month)
	if err := c.cache.Delete(ctx, key, redis.DashboardKey(p.Year, p.Month)); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Index cache invalidation failed")
	}
}
