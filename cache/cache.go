package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is a thin wrapper over go-cache with typed helpers for the values the
// app keeps in memory: pooled database clients and per-database markers.
type Cache struct {
	cache *cache.Cache
}

// NewWithTTL creates a cache whose items expire after ttl by default. Expired
// items are swept every cleanup interval.
func NewWithTTL(ttl, cleanup time.Duration) *Cache {
	return &Cache{
		cache: cache.New(ttl, cleanup),
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *Cache) Set(key string, value interface{}, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}

func (c *Cache) SetDefault(key string, value interface{}) {
	c.cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Delete(key string) {
	c.cache.Delete(key)
}

// OnEvicted registers fn to run when an item is deleted or swept after
// expiry. It is not called on Set overwrites.
func (c *Cache) OnEvicted(fn func(key string, value interface{})) {
	c.cache.OnEvicted(fn)
}

// Keys returns the keys of all unexpired items.
func (c *Cache) Keys() []string {
	items := c.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

// DeleteExpired removes expired items that the janitor has not swept yet,
// running the eviction callback for each.
func (c *Cache) DeleteExpired() {
	c.cache.DeleteExpired()
}

// Count includes expired items that have not been swept.
func (c *Cache) Count() int {
	return c.cache.ItemCount()
}
