package util

import (
	"testing"
	"time"
)

func TestLRUCapacityEviction(t *testing.T) {
	cache, err := NewWithConfig[string, int](CacheConfig{Capacity: 2, TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)

	if _, ok := cache.Get("a"); ok {
		t.Errorf("oldest entry should be evicted at capacity")
	}
	if v, ok := cache.Get("c"); !ok || v != 3 {
		t.Errorf("newest entry must survive, got %v %v", v, ok)
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	cache, err := NewWithConfig[string, int](CacheConfig{Capacity: 2, TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Get("a")
	cache.Set("c", 3)

	if _, ok := cache.Get("a"); !ok {
		t.Errorf("recently read entry should not be evicted")
	}
	if _, ok := cache.Get("b"); ok {
		t.Errorf("least recently used entry should be evicted")
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	cache, err := NewWithConfig[string, int](CacheConfig{Capacity: 4, TTL: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	cache.Set("a", 1)
	if _, ok := cache.Get("a"); !ok {
		t.Fatalf("entry should be readable before its TTL")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("a"); ok {
		t.Errorf("entry should expire after its TTL")
	}
}

func TestLRURemove(t *testing.T) {
	cache, err := NewWithConfig[string, int](CacheConfig{Capacity: 4, TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	cache.Set("a", 1)
	cache.Remove("a")
	if _, ok := cache.Get("a"); ok {
		t.Errorf("removed entry must be gone")
	}
	cache.Remove("missing") // no-op
}

func TestLRUInvalidConfig(t *testing.T) {
	if _, err := NewWithConfig[string, int](CacheConfig{Capacity: 0, TTL: time.Minute}); err == nil {
		t.Errorf("zero capacity must be rejected")
	}
}
