// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"container/list"
	"sync"
	"time"

	"github.com/depot-foundation/depot/lib/clock"
)

// CacheKey identifies one cached payload. Two pointers cache
// separately when they address different byte regions of the same
// file.
type CacheKey struct {
	Path   string
	Offset int64
	Size   int64
}

// PayloadCache is the read-cache abstraction the store consumes.
// Implementations must be safe for concurrent use. The default is
// [NewLRUCache]; tests and embedders may inject their own.
type PayloadCache interface {
	// Get returns the cached payload for key, or false when absent
	// or expired.
	Get(key CacheKey) (any, bool)

	// Put caches a payload under key.
	Put(key CacheKey, payload any)

	// Remove drops key from the cache if present.
	Remove(key CacheKey)

	// Clear drops all entries.
	Clear()

	// Len returns the number of live entries.
	Len() int
}

// LRUCache is an entry-count-bounded payload cache with per-entry
// TTL. When full, the least recently used entry is evicted; entries
// past their TTL are treated as absent and dropped lazily on Get.
// Safe for concurrent use.
//
// The cache is process-local. Other processes mutating the same
// storage tree are invisible to it — cross-process staleness is
// caught by checksum verification on load, not by the cache.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    clock.Clock
	entries  map[CacheKey]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key       CacheKey
	payload   any
	expiresAt time.Time
}

// NewLRUCache creates a cache bounded to capacity entries, each
// living at most ttl. A capacity <= 0 or ttl <= 0 disables caching:
// Get always misses and Put is a no-op.
func NewLRUCache(capacity int, ttl time.Duration, clk clock.Clock) *LRUCache {
	if clk == nil {
		clk = clock.Real()
	}
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clk,
		entries:  make(map[CacheKey]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached payload for key. Expired entries are removed
// and reported as misses.
func (c *LRUCache) Get(key CacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.entries[key]
	if !found {
		return nil, false
	}

	entry := element.Value.(*cacheEntry)
	if !c.clock.Now().Before(entry.expiresAt) {
		c.order.Remove(element)
		delete(c.entries, key)
		return nil, false
	}

	c.order.MoveToFront(element)
	return entry.payload, true
}

// Put caches payload under key with a fresh TTL, evicting the least
// recently used entry if the cache is full.
func (c *LRUCache) Put(key CacheKey, payload any) {
	if c.capacity <= 0 || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)

	if element, found := c.entries[key]; found {
		entry := element.Value.(*cacheEntry)
		entry.payload = payload
		entry.expiresAt = expiresAt
		c.order.MoveToFront(element)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	element := c.order.PushFront(&cacheEntry{
		key:       key,
		payload:   payload,
		expiresAt: expiresAt,
	})
	c.entries[key] = element
}

// Remove drops key from the cache if present.
func (c *LRUCache) Remove(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.entries[key]; found {
		c.order.Remove(element)
		delete(c.entries, key)
	}
}

// Clear drops all entries.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey]*list.Element)
	c.order.Init()
}

// Len returns the number of entries, including any not yet lazily
// expired.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
