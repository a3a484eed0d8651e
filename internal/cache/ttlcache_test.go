package cache

import (
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New[string](10, time.Minute)
	c.Set("k", "v", 0)
	v, ok := c.Get("k")
	if !ok || v != "v" {
		t.Fatalf("expected hit with value 'v', got %v ok=%v", v, ok)
	}
}

func TestGetMissIncrementsMisses(t *testing.T) {
	c := New[string](10, time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for absent key")
	}
	if c.Stats().Misses != 1 {
		t.Fatalf("expected 1 miss, got %d", c.Stats().Misses)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New[int](10, time.Millisecond)
	c.Set("k", 42, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to have expired")
	}
	s := c.Stats()
	if s.EvictionsByTTL != 1 {
		t.Fatalf("expected 1 ttl eviction, got %d", s.EvictionsByTTL)
	}
}

func TestLRUEvictionAtMaxSize(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0) // should evict "a", the least recently used

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected 'a' to have been evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected 'b' to still be present")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected 'c' to still be present")
	}
}

func TestLRUOrderUpdatedOnAccess(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Get("a") // touch a, making b the LRU entry
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected 'b' to have been evicted as the least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected 'a' to still be present after being touched")
	}
}

func TestHitRate(t *testing.T) {
	c := New[int](10, time.Minute)
	if c.Stats().HitRate() != 0 {
		t.Fatal("expected 0 hit rate with no requests")
	}
	c.Set("k", 1, 0)
	c.Get("k")
	c.Get("missing")
	s := c.Stats()
	if s.HitRate() != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %f", s.HitRate())
	}
}

func TestEvictLRUExplicit(t *testing.T) {
	c := New[int](10, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	n := c.EvictLRU(1)
	if n != 1 {
		t.Fatalf("expected to evict 1 entry, got %d", n)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected the least recently used entry 'a' to be evicted")
	}
}

func TestClear(t *testing.T) {
	c := New[int](10, time.Minute)
	c.Set("a", 1, 0)
	c.Clear()
	if c.Stats().Size != 0 {
		t.Fatal("expected empty cache after Clear")
	}
}
