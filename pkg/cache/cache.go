// Package cache remembers the URL list resolved for each search query so a
// repeated query skips the network scrape. Entries live until an explicit
// Clear; there is no eviction and no liveness re-check of cached URLs.
package cache

import (
	"strings"
	"sync"
)

// ResolutionCache maps normalized queries to previously resolved URL lists.
type ResolutionCache struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewResolutionCache returns an empty cache.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{entries: make(map[string][]string)}
}

// Normalize trims the query and collapses internal whitespace runs so that
// queries differing only in spacing share a cache key.
func Normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// Get returns the cached URL list for query. It is a hit only when the
// cached list is long enough to satisfy quantity; shorter entries are
// treated as misses so the caller re-resolves.
func (c *ResolutionCache) Get(query string, quantity int) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	urls, ok := c.entries[Normalize(query)]
	if !ok || len(urls) < quantity {
		return nil, false
	}
	return append([]string{}, urls...), true
}

// Put stores the resolved URL list for query, replacing any prior entry.
func (c *ResolutionCache) Put(query string, urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Normalize(query)] = append([]string{}, urls...)
}

// Clear empties the cache unconditionally. Invoked whenever stored assets
// are purged, so stale references to deleted files are never served.
func (c *ResolutionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]string)
}

// Len returns the number of cached queries.
func (c *ResolutionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
