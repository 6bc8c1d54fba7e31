package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.NewWithClock[string](time.Minute, func() time.Time { return now })
	defer c.Close()

	c.Set("key1", "value1")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_LastWriterWins(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()
	key := cache.Key("user-1", "credit")

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			c.Set(key, v)
		}(i)
	}
	wg.Wait()
	c.Set(key, 99)

	got, ok := c.Get(key)
	if !ok || got != 99 {
		t.Fatalf("expected last write 99, got %d (ok=%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected a single slot, got %d", c.Len())
	}
}

func TestKey(t *testing.T) {
	if got := cache.Key("u1", "credit"); got != "credit:u1" {
		t.Errorf("unexpected key %q", got)
	}
}
