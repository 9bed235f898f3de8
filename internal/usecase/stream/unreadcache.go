package stream

import (
	"sync"
	"time"
)

const unreadCacheTTL = 30 * time.Second

type unreadCacheKey struct {
	userID     int64
	includeAll bool
}

type unreadCacheEntry struct {
	resp     *UnreadCounts
	cachedAt time.Time
}

// unreadCache memoizes unread-count responses for 30s per (userId,
// includeAll).
type unreadCache struct {
	mu      sync.Mutex
	entries map[unreadCacheKey]unreadCacheEntry
}

func newUnreadCache() *unreadCache {
	return &unreadCache{entries: make(map[unreadCacheKey]unreadCacheEntry)}
}

func (c *unreadCache) get(userID int64, includeAll bool) (*UnreadCounts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := unreadCacheKey{userID, includeAll}
	entry, ok := c.entries[key]
	if !ok || time.Since(entry.cachedAt) > unreadCacheTTL {
		return nil, false
	}
	return entry.resp, true
}

func (c *unreadCache) put(userID int64, includeAll bool, resp *UnreadCounts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[unreadCacheKey{userID, includeAll}] = unreadCacheEntry{resp: resp, cachedAt: time.Now()}
}
