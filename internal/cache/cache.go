// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cache provides a bounded LRU map whose evicted values are handed
// to a callback, for caching objects that own device resources.
package cache

// LRU is a least-recently-used map with a fixed capacity.
//
// When an insertion exceeds the capacity the oldest entry is removed and
// passed to the eviction callback. LRU is not safe for concurrent use; the
// owner serializes access.
type LRU[K comparable, V any] struct {
	capacity int
	index    map[K]*node[K, V]
	order    recency[K, V]
	onEvict  func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// New returns an LRU holding at most capacity entries. A capacity below one
// is treated as one. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: max(capacity, 1),
		index:    make(map[K]*node[K, V]),
		onEvict:  onEvict,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	n, ok := c.index[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(n)
	return n.value, true
}

// Add stores value under key, replacing any previous value without calling
// the eviction callback for it, and evicts the oldest entry if the cache is
// over capacity.
func (c *LRU[K, V]) Add(key K, value V) {
	if n, ok := c.index[key]; ok {
		n.value = value
		c.order.moveToFront(n)
		return
	}
	n := &node[K, V]{key: key, value: value}
	c.index[key] = n
	c.order.pushFront(n)
	for c.order.len > c.capacity {
		c.evict(c.order.popBack())
	}
}

// Purge evicts every entry, oldest first.
func (c *LRU[K, V]) Purge() {
	for n := c.order.popBack(); n != nil; n = c.order.popBack() {
		c.evict(n)
	}
}

func (c *LRU[K, V]) evict(n *node[K, V]) {
	delete(c.index, n.key)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict(n.key, n.value)
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int { return c.order.len }

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns the current statistics.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Len:       c.order.len,
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
