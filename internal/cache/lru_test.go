package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	c.Set("b", 3)
	if v, _ := c.Get("b"); v != 3 {
		t.Fatalf("expected overwrite, got %v", v)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("c should be present")
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	clk.t = clk.t.Add(30 * time.Second)
	c.Set("c", 3)

	clk.t = clk.t.Add(31 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry (b), got %d", n)
	}
	if c.Size() != 1 {
		t.Fatalf("expected only c left, size=%d", c.Size())
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache after purge")
	}
	c.Set("x", 9)
	if v, ok := c.Get("x"); !ok || v != 9 {
		t.Fatalf("cache should be usable after purge")
	}
}

func TestManagerCleanAll(t *testing.T) {
	c1, clk1 := newTestCache(10, time.Minute)
	c2, _ := newTestCache(10, time.Hour)
	c1.Set("a", 1)
	c2.Set("b", 2)
	clk1.t = clk1.t.Add(2 * time.Minute)

	m := NewManager()
	m.Register("short", c1)
	m.Register("long", c2)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
