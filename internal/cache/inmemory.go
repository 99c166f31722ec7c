package cache

import (
	"context"
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
	"github.com/rentdesk/rentdesk/internal/config"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache.
// When caching is disabled every call is a miss or a no-op.
type InMemoryCache struct {
	cache   *goCache.Cache
	enabled bool
}

// NewInMemoryCache creates a process-local cache sized by configuration
func NewInMemoryCache(cfg *config.Configuration) Cache {
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &InMemoryCache{
		cache:   goCache.New(ttl, DefaultCleanupInterval),
		enabled: cfg.Cache.Enabled,
	}
}

func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}
	sp := startSpan(ctx, "inmemory", "get", key)
	v, found := c.cache.Get(key)
	sp.hit(found)
	return v, found
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}
	if expiration == 0 {
		expiration = goCache.DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) {
	if !c.enabled {
		return
	}
	sp := startSpan(ctx, "inmemory", "delete", key)
	defer sp.finish()
	c.cache.Delete(key)
}

func (c *InMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	if !c.enabled {
		return
	}
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
}

func (c *InMemoryCache) Flush(_ context.Context) {
	if !c.enabled {
		return
	}
	c.cache.Flush()
}
