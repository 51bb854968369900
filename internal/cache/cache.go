// Package cache provides a process-local bounded cache with TTL expiry and
// LRU eviction. Losing its contents degrades performance, never correctness.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config holds cache limits. Zero MaxEntries or MaxBytes disables that bound.
type Config[V any] struct {
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration
	// SizeOf estimates the resident size of a value in bytes. When nil every
	// entry counts as entryOverhead only.
	SizeOf func(V) int64
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// entryOverhead approximates per-entry bookkeeping (key, timestamps, list node).
const entryOverhead = 64

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Bytes     int64
}

type entry[V any] struct {
	key        string
	value      V
	createdAt  time.Time
	accessedAt time.Time
	accesses   int64
	size       int64
}

// Cache is a TTL + LRU bounded cache. Safe for concurrent use; it holds its
// own lock and shares state with nothing else.
type Cache[V any] struct {
	mu      sync.Mutex
	cfg     Config[V]
	entries map[string]*list.Element
	// lru is ordered most-recently-accessed first.
	lru   *list.List
	bytes int64
	stats Stats
}

// New creates a cache with the given limits.
func New[V any](cfg Config[V]) *Cache[V] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache[V]{
		cfg:     cfg,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the cached value for key. Entries past their TTL are treated
// as absent and removed lazily.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	e := el.Value.(*entry[V])
	now := c.cfg.Now()
	if c.expired(e, now) {
		c.remove(el)
		c.stats.Misses++
		return zero, false
	}

	e.accessedAt = now
	e.accesses++
	c.lru.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Set inserts or replaces the value for key, evicting least-recently-accessed
// entries until the new entry fits within both bounds.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}

	size := c.sizeOf(value)
	if c.cfg.MaxBytes > 0 && size > c.cfg.MaxBytes {
		// Larger than the whole budget; admitting it would evict everything
		// and still violate the bound.
		return
	}

	c.evictFor(size)

	now := c.cfg.Now()
	e := &entry[V]{
		key:        key,
		value:      value,
		createdAt:  now,
		accessedAt: now,
		size:       size,
	}
	c.entries[key] = c.lru.PushFront(e)
	c.bytes += size
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Clear drops all entries. Counters are retained.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
	c.bytes = 0
}

// Len returns the number of resident entries, including any not yet lazily expired.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	s.Bytes = c.bytes
	return s
}

func (c *Cache[V]) sizeOf(value V) int64 {
	size := int64(entryOverhead)
	if c.cfg.SizeOf != nil {
		size += c.cfg.SizeOf(value)
	}
	return size
}

func (c *Cache[V]) expired(e *entry[V], now time.Time) bool {
	return c.cfg.TTL > 0 && now.Sub(e.createdAt) >= c.cfg.TTL
}

// evictFor frees room for an incoming entry of the given size, oldest access
// first. Caller holds the lock.
func (c *Cache[V]) evictFor(incoming int64) {
	for c.overBudget(incoming) {
		oldest := c.lru.Back()
		if oldest == nil {
			return
		}
		c.remove(oldest)
		c.stats.Evictions++
	}
}

func (c *Cache[V]) overBudget(incoming int64) bool {
	if c.cfg.MaxEntries > 0 && len(c.entries)+1 > c.cfg.MaxEntries {
		return true
	}
	if c.cfg.MaxBytes > 0 && c.bytes+incoming > c.cfg.MaxBytes {
		return true
	}
	return false
}

func (c *Cache[V]) remove(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(c.entries, e.key)
	c.lru.Remove(el)
	c.bytes -= e.size
}
