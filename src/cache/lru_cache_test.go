package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("Get(c) = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

func TestLRUCacheGetRefreshesRecency(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used entry was evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used entry survived eviction")
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c := NewLRUCache(4, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry returned from Get")
	}
}

func TestHashKeyIsStable(t *testing.T) {
	if HashKey("prompt") != HashKey("prompt") {
		t.Fatalf("HashKey not deterministic")
	}
	if HashKey("prompt") == HashKey("other") {
		t.Fatalf("distinct prompts collided")
	}
}
