// Package cache provides a generic sharded LRU cache.
//
// The engine uses it for derived, rebuildable per-layer state (category
// lookup tables): eviction is always safe because any entry can be rebuilt
// from the persisted model. Do not cache authoritative data here.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// DefaultShardCount is the number of shards. Power of 2 so shard
	// selection is a bitwise AND.
	DefaultShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 256

	shardMask = DefaultShardCount - 1
)

// Hasher computes a hash for a key, used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
// Layer ids are strings, so this is the hasher the engine uses.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Sharded is a thread-safe sharded LRU cache. Each shard holds its own
// lock and LRU list, so concurrent access to different keys rarely
// contends.
type Sharded[K comparable, V any] struct {
	shards   [DefaultShardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int // per shard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[K, V]
	lru     *lruList[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// NewSharded creates a cache with the given per-shard capacity.
// If capacity <= 0, DefaultCapacity is used.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Sharded[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			entries: make(map[K]*entry[K, V]),
			lru:     newLRUList[K](),
		}
	}
	return c
}

func (c *Sharded[K, V]) getShard(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get retrieves a cached value. On a hit the entry moves to the front of
// its shard's LRU list.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.getShard(key)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.MoveToFront(e.node)
	v := e.value
	s.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// Set stores a value, evicting the oldest entries when the shard is full.
// The value is stored as-is, not copied.
func (c *Sharded[K, V]) Set(key K, value V) {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		s.lru.MoveToFront(e.node)
		return
	}
	c.evictLocked(s)
	node := s.lru.PushFront(key)
	s.entries[key] = &entry[K, V]{value: value, node: node}
}

// GetOrCreate returns the cached value for key, calling create to build it
// on a miss. create runs with the shard lock held, so a value is built at
// most once per miss; keep it fast.
func (c *Sharded[K, V]) GetOrCreate(key K, create func() V) V {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.lru.MoveToFront(e.node)
		c.hits.Add(1)
		return e.value
	}

	c.misses.Add(1)
	value := create()
	c.evictLocked(s)
	node := s.lru.PushFront(key)
	s.entries[key] = &entry[K, V]{value: value, node: node}
	return value
}

// Delete removes an entry. Returns true if it was present.
func (c *Sharded[K, V]) Delete(key K) bool {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.Remove(e.node)
	delete(s.entries, key)
	return true
}

// Clear removes all entries.
func (c *Sharded[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[K]*entry[K, V])
		s.lru.Clear()
		s.mu.Unlock()
	}
}

// Len returns the total number of entries across all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Stats returns the current hit/miss/eviction counters.
func (c *Sharded[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		Evictions: c.evictions.Load(),
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the per-shard capacity.
	Capacity int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// HitRate is the hit rate in 0.0..1.0.
	HitRate float64
	// Evictions is the number of evicted entries.
	Evictions uint64
}

// evictLocked removes oldest entries until the shard has room for one
// more. Caller holds the shard lock.
func (c *Sharded[K, V]) evictLocked(s *shard[K, V]) {
	for s.lru.Len() >= c.capacity {
		oldest, ok := s.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(s.entries, oldest)
		c.evictions.Add(1)
	}
}
