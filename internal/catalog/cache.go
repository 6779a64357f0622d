package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/metrics"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RedisCache shares a loaded catalog between worker replicas.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, key string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, key: key, ttl: ttl}
}

// Get returns (nil, nil) on a miss.
func (c *RedisCache) Get(ctx context.Context) (*Catalog, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.key, err)
	}

	var cat Catalog
	if err := json.Unmarshal(val, &cat); err != nil {
		return nil, fmt.Errorf("decode cached catalog: %w", err)
	}
	return &cat, nil
}

func (c *RedisCache) Set(ctx context.Context, cat *Catalog) error {
	data, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", c.key, err)
	}
	return nil
}

// CachedSource keeps the last catalog of an underlying Source for ttl. When a
// RedisCache is set it is consulted before the underlying source and filled
// after each load. Redis failures degrade to a direct load. Every caller gets
// its own copy of the providers.
type CachedSource struct {
	src    Source
	ttl    time.Duration
	shared *RedisCache
	logger logger.Logger
	now    func() time.Time
	group  singleflight.Group

	mu      sync.RWMutex
	cached  *Catalog
	expires time.Time
}

// NewCachedSource wraps src. A zero ttl disables caching in both layers, since
// a Redis entry written without expiry would never be reloaded. shared may be
// nil.
func NewCachedSource(src Source, ttl time.Duration, shared *RedisCache, log logger.Logger) *CachedSource {
	if ttl <= 0 && shared != nil {
		log.Warn("shared catalog cache ignored without a cache ttl", map[string]interface{}{
			"source": src.Name(),
		})
		shared = nil
	}
	return &CachedSource{
		src:    src,
		ttl:    ttl,
		shared: shared,
		logger: log,
		now:    time.Now,
	}
}

func (c *CachedSource) Name() string { return "cached:" + c.src.Name() }

func (c *CachedSource) Load(ctx context.Context) (*Catalog, error) {
	if cat := c.fromMemory(); cat != nil {
		metrics.CatalogCacheHits.WithLabelValues("memory").Inc()
		return cat, nil
	}

	v, err, _ := c.group.Do("load", func() (interface{}, error) {
		if c.shared != nil {
			cat, err := c.shared.Get(ctx)
			if err != nil {
				c.logger.Warn("shared catalog cache read failed", map[string]interface{}{"error": err})
			} else if cat != nil {
				metrics.CatalogCacheHits.WithLabelValues("redis").Inc()
				c.store(cat)
				return cat, nil
			}
		}
		return c.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog).Clone(), nil
}

// Refresh bypasses both cache layers and reloads from the underlying source.
func (c *CachedSource) Refresh(ctx context.Context) (*Catalog, error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog).Clone(), nil
}

// Invalidate drops the in-process copy and the shared entry.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.cached = nil
	c.expires = time.Time{}
	c.mu.Unlock()

	if c.shared != nil {
		return c.shared.Delete(ctx)
	}
	return nil
}

func (c *CachedSource) reload(ctx context.Context) (*Catalog, error) {
	cat, err := c.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.store(cat)

	if c.shared != nil {
		if err := c.shared.Set(ctx, cat); err != nil {
			c.logger.Warn("shared catalog cache write failed", map[string]interface{}{"error": err})
		}
	}

	c.logger.Info("provider catalog loaded", map[string]interface{}{
		"source":  c.src.Name(),
		"rows":    cat.Stats.Rows,
		"loaded":  cat.Stats.Loaded,
		"dropped": cat.Stats.Dropped,
	})
	return cat, nil
}

func (c *CachedSource) fromMemory() *Catalog {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cached == nil || !c.now().Before(c.expires) {
		return nil
	}
	return c.cached.Clone()
}

func (c *CachedSource) store(cat *Catalog) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.cached = cat
	c.expires = c.now().Add(c.ttl)
	c.mu.Unlock()
}
