package classifier

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/content-signals/internal/pkg/distlock"
	"github.com/ignite/content-signals/internal/pkg/logger"
)

// DefaultCacheTTL keeps classifications for a month; article categories
// rarely change, and a flush is available for reclassification runs.
const DefaultCacheTTL = 30 * 24 * time.Hour

const cacheKeyPrefix = "classification:url_"

// Cache is a Redis-backed classification cache keyed by URL hash.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a classification cache. A zero ttl uses DefaultCacheTTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// cacheKey hashes the URL so arbitrary characters never leak into key space.
func cacheKey(url string) string {
	sum := md5.Sum([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached classification for a URL, or nil on a miss.
// Corrupt entries are dropped and reported as misses.
func (c *Cache) Get(ctx context.Context, url string) (*Classification, error) {
	data, err := c.rdb.Get(ctx, cacheKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("classifier cache: get: %w", err)
	}

	var result Classification
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warn("classifier cache: dropping corrupt entry", "url", url)
		c.rdb.Del(ctx, cacheKey(url))
		return nil, nil
	}
	return &result, nil
}

// Put stores a classification under the cache TTL.
func (c *Cache) Put(ctx context.Context, result *Classification) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("classifier cache: marshal: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(result.URL), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("classifier cache: set: %w", err)
	}
	return nil
}

// ErrFlushInProgress is returned when another replica is already flushing.
var ErrFlushInProgress = errors.New("classifier cache: flush already in progress")

// Flush removes every cached classification, forcing reclassification on
// the next lookup. Returns the number of entries removed. The flush is
// guarded by a distributed lock so replicas never stampede the
// classification service with simultaneous reclassification runs.
func (c *Cache) Flush(ctx context.Context) (int, error) {
	lock := distlock.NewRedisLock(c.rdb, "classification-flush", time.Minute)
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("classifier cache: flush lock: %w", err)
	}
	if !acquired {
		return 0, ErrFlushInProgress
	}
	defer lock.Release(ctx)

	var removed int
	iter := c.rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("classifier cache: flush: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("classifier cache: scan: %w", err)
	}
	logger.Info("classification cache flushed", "entries", removed)
	return removed, nil
}

// CachedClassifier checks the cache before invoking the client, and writes
// fresh results back through.
type CachedClassifier struct {
	client *Client
	cache  *Cache
}

// NewCachedClassifier wires a client with a cache. A nil cache passes every
// call straight through.
func NewCachedClassifier(client *Client, cache *Cache) *CachedClassifier {
	return &CachedClassifier{client: client, cache: cache}
}

// Classify returns the cached classification when present, otherwise calls
// the service and caches the result. Cache write failures are logged, not
// returned.
func (cc *CachedClassifier) Classify(ctx context.Context, url string) (*Classification, error) {
	if cc.cache != nil {
		if hit, err := cc.cache.Get(ctx, url); err == nil && hit != nil {
			return hit, nil
		} else if err != nil {
			logger.Warn("classifier cache unavailable, falling through", "error", err.Error())
		}
	}

	result, err := cc.client.Classify(ctx, url)
	if err != nil {
		return nil, err
	}

	if cc.cache != nil {
		if err := cc.cache.Put(ctx, result); err != nil {
			logger.Warn("classifier cache write failed", "url", url, "error", err.Error())
		}
	}
	return result, nil
}
