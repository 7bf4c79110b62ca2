package enchantments

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the in-process key to Resolution map. Entries are never evicted; freshness is
// decided at read time from FetchedAt and the TTL.
type Cache struct {
	items     *gocache.Cache
	ttl       time.Duration
	persister *persister
}

// newCache creates a cache whose Set forwards records to p. p may be nil.
func newCache(ttl time.Duration, p *persister) *Cache {
	return &Cache{
		// no default expiration and no janitor goroutine
		items:     gocache.New(gocache.NoExpiration, 0),
		ttl:       ttl,
		persister: p,
	}
}

func cacheKey(key int) string {
	return strconv.Itoa(key)
}

// Get returns the entry for key whether or not it is still fresh
func (c *Cache) Get(key int) (CacheEntry, bool) {
	v, ok := c.items.Get(cacheKey(key))
	if !ok {
		return CacheEntry{}, false
	}
	return v.(CacheEntry), true
}

// Set stores res stamped with the current time and schedules a durable write
func (c *Cache) Set(res Resolution) {
	now := time.Now()
	c.store(res, now)
	if c.persister != nil {
		c.persister.enqueue(res, now)
	}
}

// Load stores res with an explicit fetch time without persisting it again
func (c *Cache) Load(res Resolution, fetchedAt time.Time) {
	c.store(res, fetchedAt)
}

func (c *Cache) store(res Resolution, fetchedAt time.Time) {
	c.items.Set(cacheKey(res.Key), CacheEntry{
		Resolution: res.Clone(),
		FetchedAt:  fetchedAt,
		TTL:        c.ttl,
	}, gocache.NoExpiration)
}

// Len counts entries, stale ones included
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Clear drops every entry. Durable records are untouched.
func (c *Cache) Clear() {
	c.items.Flush()
}
