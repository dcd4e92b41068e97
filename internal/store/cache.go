package store

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"go-zhipin-automation/internal/logger"
)

// Cache is the read-through cache for the acceptability and resolution
// predicates, keyed by job id. Entries are evicted whenever the underlying
// row is written, so stale verdicts never outlive a blocklist or contact
// mutation. Failures are swallowed: a broken cache degrades to recomputing.
type Cache interface {
	GetBool(ctx context.Context, key string) (val, ok bool)
	SetBool(ctx context.Context, key string, val bool)
	Evict(ctx context.Context, keys ...string)
}

// AcceptableKey is the cache key for a job's acceptability verdict.
func AcceptableKey(jobID string) string { return "zp:acceptable:" + jobID }

// ResolvedKey is the cache key for a job's resolution verdict.
func ResolvedKey(jobID string) string { return "zp:resolved:" + jobID }

const cacheTTL = 24 * time.Hour

type redisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps a Redis client as a predicate cache. The client is
// created from REDIS_URL via redis.ParseURL by the caller.
func NewRedisCache(rdb *redis.Client) Cache {
	return &redisCache{rdb: rdb}
}

func (c *redisCache) GetBool(ctx context.Context, key string) (bool, bool) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		logger.WithError(err).Warnf("cache read failed for %s", key)
		return false, false
	}
	return v == "1", true
}

func (c *redisCache) SetBool(ctx context.Context, key string, val bool) {
	v := "0"
	if val {
		v = "1"
	}
	if err := c.rdb.Set(ctx, key, v, cacheTTL).Err(); err != nil {
		logger.WithError(err).Warnf("cache write failed for %s", key)
	}
}

func (c *redisCache) Evict(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.WithError(err).Warnf("cache eviction failed")
	}
}

type memoryCache struct {
	mu   sync.Mutex
	vals map[string]bool
}

// NewMemoryCache is the in-process fallback used when Redis is not
// configured. Mutex-guarded because Go maps are not safe for concurrent
// use.
func NewMemoryCache() Cache {
	return &memoryCache{vals: make(map[string]bool)}
}

func (c *memoryCache) GetBool(_ context.Context, key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key]
	return v, ok
}

func (c *memoryCache) SetBool(_ context.Context, key string, val bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[key] = val
}

func (c *memoryCache) Evict(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.vals, k)
	}
}
