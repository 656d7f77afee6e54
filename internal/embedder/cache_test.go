package embedder

import (
	"fmt"
	"testing"
)

func Test_Cache_HitAndMiss(t *testing.T) {
	t.Parallel()

	c := NewCache(4)
	c.Put("alpha", []float32{1, 2, 3})

	got, ok := c.Get("alpha")
	if !ok {
		t.Fatal("want hit for cached key")
	}
	if len(got) != 3 || got[0] != 1 {
		t.Errorf("unexpected vector: %v", got)
	}

	if _, ok := c.Get("bravo"); ok {
		t.Error("want miss for unknown key")
	}
}

func Test_Cache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	const max = 5
	c := NewCache(max)

	// Inserting max+1 distinct keys evicts exactly the first-inserted key.
	for i := 0; i <= max; i++ {
		c.Put(fmt.Sprintf("key-%d", i), []float32{float32(i)})
	}

	if _, ok := c.Get("key-0"); ok {
		t.Error("key-0 should have been evicted")
	}
	for i := 1; i <= max; i++ {
		if _, ok := c.Get(fmt.Sprintf("key-%d", i)); !ok {
			t.Errorf("key-%d should still be cached", i)
		}
	}
}

func Test_Cache_GetRefreshesRecency(t *testing.T) {
	t.Parallel()

	const max = 3
	c := NewCache(max)
	c.Put("keep", []float32{1})
	c.Put("a", []float32{2})
	c.Put("b", []float32{3})

	// Touching "keep" makes it MRU, so max new inserts must not evict it.
	if _, ok := c.Get("keep"); !ok {
		t.Fatal("keep should be cached")
	}
	for i := 0; i < max-1; i++ {
		c.Put(fmt.Sprintf("new-%d", i), []float32{float32(i)})
	}

	if _, ok := c.Get("keep"); !ok {
		t.Error("recently accessed key was evicted")
	}
}

func Test_Cache_PutExistingUpdatesWithoutEviction(t *testing.T) {
	t.Parallel()

	c := NewCache(2)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("a", []float32{9})

	if c.Len() != 2 {
		t.Errorf("want 2 entries, got %d", c.Len())
	}
	got, ok := c.Get("a")
	if !ok || got[0] != 9 {
		t.Errorf("want updated vector for a, got %v (hit=%v)", got, ok)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should not have been evicted by re-put of a")
	}
}

func Test_Cache_Clear(t *testing.T) {
	t.Parallel()

	c := NewCache(4)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("want empty cache, got %d entries", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared key still present")
	}
}
