package portfolio

import (
	"sync"
	"time"
)

// cache memoizes assembled portfolio views per account. Invalidation is
// synchronous: every settlement that mutates a position evicts the owner's
// entry before it returns.
type cache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cacheEntry
}

type cacheEntry struct {
	view    View
	expires time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, items: make(map[string]cacheEntry)}
}

func (c *cache) get(accountID string, now time.Time) (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[accountID]
	if !ok || now.After(e.expires) {
		delete(c.items, accountID)
		return View{}, false
	}
	return e.view, true
}

func (c *cache) put(accountID string, v View, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[accountID] = cacheEntry{view: v, expires: now.Add(c.ttl)}
	c.mu.Unlock()
}

func (c *cache) evict(accountID string) {
	c.mu.Lock()
	delete(c.items, accountID)
	c.mu.Unlock()
}
