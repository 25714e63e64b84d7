// Package tier0 implements the in-process L0 cache. It is a
// capacity-bounded, strictly-ordered LRU map with tri-state lookup
// (HIT/MISS/EXPIRED), synchronous and non-suspending: no timers, no
// background goroutines.
package tier0

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// Status is the tri-state result of a Get.
type Status int

const (
	Miss Status = iota
	Hit
	Expired
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "HIT"
	case Expired:
		return "EXPIRED"
	default:
		return "MISS"
	}
}

// entry is the value stored for each key: the artifact plus its absolute
// expiry in epoch milliseconds. No other metadata is kept.
type entry[V any] struct {
	value           V
	expiresAtMillis int64
}

// Cache is the L0 tier. All operations are O(1) amortized and never
// suspend: no timers, no background goroutines, no sweepers. Maintenance
// (eviction, expiry removal) happens synchronously inside Get/Set.
type Cache[V any] struct {
	mu         sync.Mutex
	lru        *lru.LRU[string, entry[V]]
	nowMilli   func() int64
	capacity   int
	evictCount int64
}

// New creates a Cache with the given capacity (floor of 1) and a clock
// function (injectable for tests; production callers pass a wrapper around
// time.Now().UnixMilli()).
func New[V any](capacity int, nowMilli func() int64) *Cache[V] {
	if capacity < 1 {
		capacity = 1
	}
	c := &Cache[V]{nowMilli: nowMilli, capacity: capacity}
	inner, err := lru.NewLRU[string, entry[V]](capacity, func(key string, _ entry[V]) {
		c.evictCount++
	})
	if err != nil {
		// Only possible for capacity <= 0, which is excluded above.
		panic(err)
	}
	c.lru = inner
	return c
}

// Get looks up key. On HIT the entry moves to most-recent. On EXPIRED the
// stale value is returned and the entry is removed atomically with the
// lookup: a subsequent Get for the same key observes MISS.
func (c *Cache[V]) Get(key string) (Status, V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return Miss, zero
	}

	if e.expiresAtMillis <= c.nowMilli() {
		c.lru.Remove(key)
		return Expired, e.value
	}

	return Hit, e.value
}

// Peek behaves like Get but never mutates recency and never deletes an
// expired entry, so an entry can be inspected without disturbing LRU
// order.
func (c *Cache[V]) Peek(key string) (Status, V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(key)
	if !ok {
		var zero V
		return Miss, zero
	}
	if e.expiresAtMillis <= c.nowMilli() {
		return Expired, e.value
	}
	return Hit, e.value
}

// Set inserts or replaces key's value with the given absolute expiry. If
// the key already exists it is removed first so the new entry lands at
// most-recent. If the map is at capacity after accounting for the new key,
// the least-recently-used entry is evicted before insert — handled
// internally by the wrapped LRU's Add.
func (c *Cache[V]) Set(key string, value V, expiresAtMillis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, entry[V]{value: value, expiresAtMillis: expiresAtMillis})
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Delete removes key, if present, without regard to its expiry. Used by
// the debug/inspect surface's manual-purge operation.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Info reports point-in-time statistics for the debug/inspect surface.
type Info struct {
	Len       int
	Capacity  int
	Evictions int64
}

func (c *Cache[V]) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{Len: c.lru.Len(), Capacity: c.capacity, Evictions: c.evictCount}
}
