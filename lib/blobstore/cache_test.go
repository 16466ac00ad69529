// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"testing"
	"time"

	"github.com/depot-foundation/depot/lib/clock"
)

func cacheKey(path string) CacheKey {
	return CacheKey{Path: path, Offset: 0, Size: 1}
}

func TestLRUCacheEviction(t *testing.T) {
	cache := NewLRUCache(2, time.Hour, clock.Fake(time.Unix(0, 0)))

	cache.Put(cacheKey("a"), "A")
	cache.Put(cacheKey("b"), "B")

	// Touch "a" so "b" becomes the eviction candidate.
	if _, found := cache.Get(cacheKey("a")); !found {
		t.Fatal("a missing")
	}

	cache.Put(cacheKey("c"), "C")
	if _, found := cache.Get(cacheKey("b")); found {
		t.Error("least recently used entry survived eviction")
	}
	if _, found := cache.Get(cacheKey("a")); !found {
		t.Error("recently used entry evicted")
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d, want 2", cache.Len())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(0, 0))
	cache := NewLRUCache(8, time.Minute, fakeClock)

	cache.Put(cacheKey("a"), "A")
	fakeClock.Advance(59 * time.Second)
	if _, found := cache.Get(cacheKey("a")); !found {
		t.Fatal("entry expired before TTL")
	}

	fakeClock.Advance(2 * time.Second)
	if _, found := cache.Get(cacheKey("a")); found {
		t.Fatal("entry served past TTL")
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry retained, Len = %d", cache.Len())
	}
}

func TestLRUCachePutRefreshesTTL(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(0, 0))
	cache := NewLRUCache(8, time.Minute, fakeClock)

	cache.Put(cacheKey("a"), "A")
	fakeClock.Advance(45 * time.Second)
	cache.Put(cacheKey("a"), "A2")
	fakeClock.Advance(45 * time.Second)

	payload, found := cache.Get(cacheKey("a"))
	if !found {
		t.Fatal("refreshed entry expired")
	}
	if payload != "A2" {
		t.Errorf("payload = %v, want A2", payload)
	}
}

func TestLRUCacheKeyRegions(t *testing.T) {
	cache := NewLRUCache(8, time.Hour, clock.Fake(time.Unix(0, 0)))

	cache.Put(CacheKey{Path: "p", Offset: 0, Size: 10}, "whole")
	cache.Put(CacheKey{Path: "p", Offset: 10, Size: 5}, "tail")

	if payload, _ := cache.Get(CacheKey{Path: "p", Offset: 0, Size: 10}); payload != "whole" {
		t.Errorf("whole-file region = %v", payload)
	}
	if payload, _ := cache.Get(CacheKey{Path: "p", Offset: 10, Size: 5}); payload != "tail" {
		t.Errorf("tail region = %v", payload)
	}
}

func TestLRUCacheDisabled(t *testing.T) {
	cache := NewLRUCache(0, time.Hour, clock.Fake(time.Unix(0, 0)))

	cache.Put(cacheKey("a"), "A")
	if _, found := cache.Get(cacheKey("a")); found {
		t.Error("disabled cache stored an entry")
	}
}

func TestLRUCacheRemoveAndClear(t *testing.T) {
	cache := NewLRUCache(8, time.Hour, clock.Fake(time.Unix(0, 0)))

	cache.Put(cacheKey("a"), "A")
	cache.Put(cacheKey("b"), "B")
	cache.Remove(cacheKey("a"))
	if _, found := cache.Get(cacheKey("a")); found {
		t.Error("removed entry still present")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d", cache.Len())
	}
}
