package calendar

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultCacheEntries bounds the number of resolved sets kept by NewCache(0)
const DefaultCacheEntries = 4096

type cacheKey struct {
	ruleSet   uuid.UUID
	startYear int
	endYear   int
}

// Cache memoises RuleSet.DatesIn per (rule set, year range). Entries are
// written once and never modified, so readers share them under a read lock.
type Cache struct {
	mu         sync.RWMutex
	entries    map[cacheKey]DateSet
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

// CacheStats is a point-in-time view of cache usage
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewCache creates a cache holding at most maxEntries sets
// (DefaultCacheEntries when maxEntries <= 0).
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		entries:    make(map[cacheKey]DateSet),
		maxEntries: maxEntries,
	}
}

// DatesIn returns a copy of the resolved dates of rs over the year range
func (c *Cache) DatesIn(rs *RuleSet, startYear, endYear int) DateSet {
	return c.shared(rs, startYear, endYear).Clone()
}

// shared returns the cached set itself; callers must not modify it
func (c *Cache) shared(rs *RuleSet, startYear, endYear int) DateSet {
	if rs == nil {
		return DateSet{}
	}
	key := cacheKey{ruleSet: rs.ID(), startYear: startYear, endYear: endYear}

	c.mu.RLock()
	dates, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return dates
	}

	c.misses.Add(1)
	dates = rs.DatesIn(startYear, endYear)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	if len(c.entries) >= c.maxEntries {
		// Rule sets are immutable, so dropping everything only costs recomputation
		c.entries = make(map[cacheKey]DateSet)
	}
	c.entries[key] = dates
	return dates
}

// Reset drops all cached sets
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]DateSet)
	c.mu.Unlock()
}

// Stats returns usage counters
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}
