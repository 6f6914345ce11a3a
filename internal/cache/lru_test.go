package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	// Touch key1 so key2 becomes the least recently used
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should be present before eviction")
	}

	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted as least recently used")
	}
	for _, key := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(key); !found {
			t.Errorf("%s should still be present", key)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheUpdateExistingKey(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)

	c.Set("key", 1)
	c.Set("key", 2)

	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1 after updating the same key", c.Size())
	}
	got, found := c.Get("key")
	if !found || got != 2 {
		t.Errorf("Get(key) = %d, %v, want 2, true", got, found)
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.Set("key1", "value1")

	current = base.Add(30 * time.Second)
	if _, found := c.Get("key1"); !found {
		t.Error("key1 should still be valid before TTL")
	}

	current = base.Add(2 * time.Minute)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired after TTL")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after expired entry removed on access", c.Size())
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.Set("old1", "a")
	c.Set("old2", "b")

	current = base.Add(45 * time.Second)
	c.Set("fresh", "c")

	current = base.Add(90 * time.Second)
	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if _, found := c.Get("fresh"); !found {
		t.Error("fresh entry should survive cleanup")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCacheClear(t *testing.T) {
	c := NewLRUCache[string](10, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after Clear", c.Size())
	}
	if _, found := c.Get("key1"); found {
		t.Error("key1 should be gone after Clear")
	}

	// Cache stays usable after Clear
	c.Set("key3", "value3")
	if _, found := c.Get("key3"); !found {
		t.Error("key3 should be present after Clear and Set")
	}
}

func TestManagerCleanup(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("key1", "value1")

	m := NewManager()
	m.Register(c)
	m.StartCleanup(20 * time.Millisecond)
	defer m.Stop()

	time.Sleep(100 * time.Millisecond)

	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after periodic cleanup", c.Size())
	}
}

func TestManagerStopTwice(t *testing.T) {
	m := NewManager()
	m.StartCleanup(10 * time.Millisecond)

	m.Stop()
	m.Stop() // must not panic
}
