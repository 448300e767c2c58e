package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("expected (1, true), got (%d, %v)", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("expected updated value 2, got %d", v)
	}
}

func TestGetOrCreate(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)

	calls := 0
	build := func() int { calls++; return 7 }

	if v := c.GetOrCreate("lut", build); v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
	if v := c.GetOrCreate("lut", build); v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
	if calls != 1 {
		t.Errorf("create should run once, ran %d times", calls)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)
	c.Set("a", 1)
	c.Set("b", 2)

	if !c.Delete("a") {
		t.Error("Delete should report removal")
	}
	if c.Delete("a") {
		t.Error("second Delete should report absence")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry still present")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", c.Len())
	}
}

func TestEviction(t *testing.T) {
	// Capacity 1 per shard: a second key in the same shard evicts the first.
	sameShard := func(string) uint64 { return 0 }
	c := NewSharded[string, int](1, sameShard)

	c.Set("old", 1)
	c.Set("new", 2)

	if _, ok := c.Get("old"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.Get("new"); !ok || v != 2 {
		t.Errorf("expected (2, true), got (%d, %v)", v, ok)
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", s.Evictions)
	}
}

func TestStats(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)
	c.Set("a", 1)
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("expected 1 hit / 1 miss, got %d / %d", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", s.HitRate)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewSharded[string, int](64, StringHasher)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k%d", i%32)
				c.Set(key, g)
				c.Get(key)
				c.GetOrCreate(key, func() int { return g })
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != 32 {
		t.Errorf("expected 32 entries, got %d", c.Len())
	}
}
