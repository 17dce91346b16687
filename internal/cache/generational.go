// Package cache provides bounded, frame-driven caches for per-frame renderer data.
package cache

// Generational is a fixed-capacity map whose contents are invalidated
// wholesale after a number of generations. The owner advances the generation
// once per frame; entries never outlive the TTL and the map never grows past
// its capacity.
//
// It is not safe for concurrent use. Renderers own one instance each and
// touch it from the render thread only.
type Generational[K comparable, V any] struct {
	entries  map[K]V
	capacity int

	ttl        uint64
	generation uint64
	clearedAt  uint64

	// Stats
	hits   int
	misses int
	clears int
}

// NewGenerational creates a cache holding at most capacity entries that is
// cleared every ttl generations. A ttl of 0 disables automatic clearing.
func NewGenerational[K comparable, V any](capacity int, ttl uint64) *Generational[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Generational[K, V]{
		entries:  make(map[K]V, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get retrieves an entry.
func (c *Generational[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// GetIf retrieves an entry only when valid accepts it. A rejected entry
// counts as a miss.
func (c *Generational[K, V]) GetIf(key K, valid func(V) bool) (V, bool) {
	v, ok := c.entries[key]
	if ok && valid(v) {
		c.hits++
		return v, true
	}
	c.misses++
	var zero V
	return zero, false
}

// Put stores an entry. When the cache is full and key is new, every entry is
// dropped before inserting.
func (c *Generational[K, V]) Put(key K, value V) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.Clear()
	}
	c.entries[key] = value
}

// Advance moves to the next generation and clears the cache once the TTL
// elapsed since the last clear. Returns true if the cache was cleared.
func (c *Generational[K, V]) Advance() bool {
	c.generation++
	if c.ttl == 0 || c.generation-c.clearedAt < c.ttl {
		return false
	}
	c.Clear()
	return true
}

// Clear drops every entry.
func (c *Generational[K, V]) Clear() {
	clear(c.entries)
	c.clearedAt = c.generation
	c.clears++
}

// Len returns the number of live entries.
func (c *Generational[K, V]) Len() int {
	return len(c.entries)
}

// Generation returns the current generation counter.
func (c *Generational[K, V]) Generation() uint64 {
	return c.generation
}

// Stats returns cache statistics.
func (c *Generational[K, V]) Stats() (hits, misses, clears int) {
	return c.hits, c.misses, c.clears
}
