// Package cache implements C2 (TTLCache) and C3 (CacheManager): a generic
// TTL+LRU cache fronting the forecast API and the reference-comment
// store, and a process-wide registry of named caches with a background
// memory-pressure monitor.
//
// TTLCache needs per-entry expire_at *and* an LRU order, with eviction
// reasons broken out (ttl/lru/memory-pressure) for CacheStats — a shape
// github.com/hashicorp/golang-lru/v2 doesn't expose (it tracks recency
// only, not wall-clock expiry), so the LRU order here is hand-rolled with
// container/list in the teacher's single-mutex style
// (internal/store/memory.go); golang-lru is used instead where its shape
// fits exactly, in internal/location's edit-distance memoization.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is one cached value plus its bookkeeping.
type entry[V any] struct {
	key         string
	value       V
	expireAt    time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int64
	elem        *list.Element
}

// Stats mirrors spec.md §3's CacheStats.
type Stats struct {
	Size                       int
	Hits                       int64
	Misses                     int64
	Evictions                  int64
	EvictionsByTTL             int64
	EvictionsByLRU             int64
	EvictionsByMemoryPressure  int64
	MemoryUsageBytes           int64
	OldestEntryAgeSeconds      float64
	NewestEntryAgeSeconds      float64
}

// HitRate returns hits/(hits+misses), 0 when there have been no requests.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// TTLCache is a generic key(string)->value cache with per-entry expiry,
// an LRU size bound, and monotonic hit/miss/eviction counters. Safe for
// concurrent use: a single mutex guards every operation, matching
// spec.md §4.2 ("hit rate, not throughput, is the scaling axis").
type TTLCache[V any] struct {
	mu         sync.Mutex
	items      map[string]*entry[V]
	order      *list.List // front = most recently used
	maxSize    int
	defaultTTL time.Duration

	hits, misses                                        int64
	evictions, evictTTL, evictLRU, evictMemoryPressure int64

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New constructs a TTLCache bounded to maxSize entries with the given
// default TTL (used when Set is called without an explicit ttl).
func New[V any](maxSize int, defaultTTL time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		items:      make(map[string]*entry[V]),
		order:      list.New(),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
	}
}

// Get returns the stored value iff the entry exists and hasn't expired.
// An expired entry is removed and reported as a miss.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}

	if !time.Now().Before(e.expireAt) {
		c.removeEntry(e)
		c.evictions++
		c.evictTTL++
		c.misses++
		var zero V
		return zero, false
	}

	e.lastAccess = time.Now()
	e.accessCount++
	c.order.MoveToFront(e.elem)
	c.hits++
	return e.value, true
}

// Set stores value under key with the given ttl (or the cache's default
// ttl if ttl <= 0), evicting least-recently-used entries if the cache is
// now over its max size.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()

	if existing, ok := c.items[key]; ok {
		existing.value = value
		existing.expireAt = now.Add(ttl)
		existing.createdAt = now
		existing.lastAccess = now
		c.order.MoveToFront(existing.elem)
		return
	}

	e := &entry[V]{key: key, value: value, expireAt: now.Add(ttl), createdAt: now, lastAccess: now}
	e.elem = c.order.PushFront(e)
	c.items[key] = e

	if c.maxSize > 0 {
		for len(c.items) > c.maxSize {
			c.evictOneLRU()
		}
	}
}

// removeEntry deletes an entry from both the map and the LRU list. Caller
// must hold c.mu.
func (c *TTLCache[V]) removeEntry(e *entry[V]) {
	delete(c.items, e.key)
	c.order.Remove(e.elem)
}

// evictOneLRU evicts the least-recently-used entry, tie-broken by oldest
// created_at (guaranteed here since the list is already ordered by
// recency of access, and ties can't occur within one list). Caller must
// hold c.mu.
func (c *TTLCache[V]) evictOneLRU() {
	back := c.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry[V])
	c.removeEntry(e)
	c.evictions++
	c.evictLRU++
}

// EvictLRU evicts up to n least-recently-used entries and returns the
// number actually evicted. Used both directly and by the memory-pressure
// monitor (which tags the eviction reason separately).
func (c *TTLCache[V]) EvictLRU(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLRULocked(n, false)
}

// evictUnderMemoryPressure is identical to EvictLRU but tags the
// eviction reason as memory-pressure for CacheStats breakdown.
func (c *TTLCache[V]) evictUnderMemoryPressure(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLRULocked(n, true)
}

func (c *TTLCache[V]) evictLRULocked(n int, memoryPressure bool) int {
	evicted := 0
	for i := 0; i < n; i++ {
		back := c.order.Back()
		if back == nil {
			break
		}
		e := back.Value.(*entry[V])
		c.removeEntry(e)
		c.evictions++
		if memoryPressure {
			c.evictMemoryPressure++
		} else {
			c.evictLRU++
		}
		evicted++
	}
	return evicted
}

// Clear removes every entry without affecting cumulative stats.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry[V])
	c.order.Init()
}

// Stats returns a snapshot of the cache's current size and counters.
func (c *TTLCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	s := Stats{
		Size:                      len(c.items),
		Hits:                      c.hits,
		Misses:                    c.misses,
		Evictions:                 c.evictions,
		EvictionsByTTL:            c.evictTTL,
		EvictionsByLRU:            c.evictLRU,
		EvictionsByMemoryPressure: c.evictMemoryPressure,
	}

	var oldest, newest time.Time
	for _, e := range c.items {
		if oldest.IsZero() || e.createdAt.Before(oldest) {
			oldest = e.createdAt
		}
		if newest.IsZero() || e.createdAt.After(newest) {
			newest = e.createdAt
		}
	}
	if !oldest.IsZero() {
		s.OldestEntryAgeSeconds = now.Sub(oldest).Seconds()
		s.NewestEntryAgeSeconds = now.Sub(newest).Seconds()
	}
	return s
}

// StartCleanup launches a background goroutine that purges expired
// entries every interval, until Close is called. Optional: callers that
// never call it still get correct on-read expiry via Get.
func (c *TTLCache[V]) StartCleanup(interval time.Duration) {
	c.mu.Lock()
	if c.stopCleanup != nil {
		c.mu.Unlock()
		return
	}
	c.stopCleanup = make(chan struct{})
	stop := c.stopCleanup
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.purgeExpired()
			case <-stop:
				return
			}
		}
	}()
}

func (c *TTLCache[V]) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for _, e := range c.items {
		if !now.Before(e.expireAt) {
			c.removeEntry(e)
			c.evictions++
			c.evictTTL++
		}
	}
}

// Close stops the background cleanup goroutine, if running.
func (c *TTLCache[V]) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		stop := c.stopCleanup
		c.mu.Unlock()
		if stop != nil {
			close(stop)
		}
	})
}
