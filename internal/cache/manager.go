package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sakamo-wni/weathercomment/internal/logger"
	"github.com/sakamo-wni/weathercomment/internal/metrics"
)

// namedCache is the type-erased surface CacheManager needs to drive
// eviction and stats across caches holding different value types.
type namedCache interface {
	Stats() Stats
	EvictLRU(n int) int
	evictUnderMemoryPressureErased(n int) int
	Clear()
}

// erasedCache adapts a *TTLCache[V] to namedCache.
type erasedCache[V any] struct{ *TTLCache[V] }

func (e erasedCache[V]) evictUnderMemoryPressureErased(n int) int {
	return e.evictUnderMemoryPressure(n)
}

// CacheConfig configures a named cache at creation time.
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// DefaultCaches are the three caches spec.md §4.3 requires at startup.
var DefaultCaches = map[string]CacheConfig{
	"api_responses":     {TTL: 300 * time.Second, MaxSize: 500},
	"comments":          {TTL: 3600 * time.Second, MaxSize: 1000},
	"weather_forecasts": {TTL: 600 * time.Second, MaxSize: 200},
}

// MemoryPressureConfig configures the background monitor in §4.3.
type MemoryPressureConfig struct {
	Enabled           bool
	Interval          time.Duration
	ThresholdFraction float64 // e.g. 0.8 for 80%
}

// Manager is the process-wide registry of named TTLCaches with a
// background memory-pressure monitor, grounded on the teacher's
// ratelimit/CacheManager-shaped singleton pattern but made instance-based:
// built by NewManager and stopped by Shutdown, with no hidden singleton.
type Manager struct {
	mu     sync.Mutex
	caches map[string]namedCache
	specs  map[string]CacheConfig

	pressureCfg MemoryPressureConfig
	stopMonitor chan struct{}
	monitorOnce sync.Once
}

// NewManager constructs a Manager and creates the default caches.
func NewManager(pressureCfg MemoryPressureConfig) *Manager {
	m := &Manager{
		caches:      make(map[string]namedCache),
		specs:       make(map[string]CacheConfig),
		pressureCfg: pressureCfg,
	}
	for name, cfg := range DefaultCaches {
		m.CreateCache(name, cfg)
	}
	if pressureCfg.Enabled {
		m.startMemoryMonitor()
	}
	return m
}

// CreateCache registers a new named cache of value type any. Callers
// that need a typed view should use GetTypedCache.
func (m *Manager) CreateCache(name string, cfg CacheConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caches[name]; ok {
		return
	}
	c := New[any](cfg.MaxSize, cfg.TTL)
	m.caches[name] = erasedCache[any]{c}
	m.specs[name] = cfg
}

// GetCache auto-creates (with defaults) and returns the raw any-valued
// cache for name.
func (m *Manager) GetCache(name string) *TTLCache[any] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.caches[name]; ok {
		if ec, ok := c.(erasedCache[any]); ok {
			return ec.TTLCache
		}
	}
	cfg := CacheConfig{TTL: 300 * time.Second, MaxSize: 500}
	c := New[any](cfg.MaxSize, cfg.TTL)
	m.caches[name] = erasedCache[any]{c}
	m.specs[name] = cfg
	return c
}

// ClearAll clears every registered cache.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.caches {
		c.Clear()
	}
}

// StatsSummary returns per-cache stats plus aggregate totals, the shape
// persisted by the cache-stats snapshot (spec.md §6).
type StatsSummary struct {
	PerCache map[string]Stats
	Totals   Stats
}

func (m *Manager) StatsSummary() StatsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := StatsSummary{PerCache: make(map[string]Stats, len(m.caches))}
	for name, c := range m.caches {
		s := c.Stats()
		summary.PerCache[name] = s
		summary.Totals.Size += s.Size
		summary.Totals.Hits += s.Hits
		summary.Totals.Misses += s.Misses
		summary.Totals.Evictions += s.Evictions
		summary.Totals.EvictionsByTTL += s.EvictionsByTTL
		summary.Totals.EvictionsByLRU += s.EvictionsByLRU
		summary.Totals.EvictionsByMemoryPressure += s.EvictionsByMemoryPressure
	}
	return summary
}

// startMemoryMonitor launches the best-effort background sampler from
// spec.md §4.3. If process memory can't be queried, it silently does
// nothing on each tick rather than erroring.
func (m *Manager) startMemoryMonitor() {
	m.monitorOnce.Do(func() {
		m.stopMonitor = make(chan struct{})
		go func() {
			ticker := time.NewTicker(m.pressureCfg.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					m.checkMemoryPressure()
				case <-m.stopMonitor:
					return
				}
			}
		}()
	})
}

func (m *Manager) checkMemoryPressure() {
	vm, err := mem.VirtualMemory()
	if err != nil {
		// Best-effort optimization, never a correctness requirement.
		return
	}
	usedFraction := float64(vm.Used) / float64(vm.Total)
	if math.IsNaN(usedFraction) || usedFraction < m.pressureCfg.ThresholdFraction {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, c := range m.caches {
		size := c.Stats().Size
		n := int(math.Ceil(float64(size) * 0.1))
		if n <= 0 {
			continue
		}
		evicted := c.evictUnderMemoryPressureErased(n)
		if evicted > 0 {
			logger.Debug("evicted entries under memory pressure", "cache", name, "count", evicted)
			metrics.RecordCacheOp(name, "evict_memory_pressure")
		}
	}
}

// Shutdown stops the background monitor. Safe to call even if it was
// never started.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.stopMonitor != nil {
		close(m.stopMonitor)
	}
	return nil
}

