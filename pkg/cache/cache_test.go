package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("empty store should miss")
	}
	if !m.Set(ctx, "k", "v", 0) {
		t.Error("set should land")
	}
	if v, ok := m.Get(ctx, "k"); !ok || v != "v" {
		t.Errorf("got %q %v", v, ok)
	}
	if !m.Delete(ctx, "k") {
		t.Error("delete of present key returns true")
	}
	if m.Delete(ctx, "k") {
		t.Error("delete of absent key returns false")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	current := time.Now()
	m.now = func() time.Time { return current }

	m.Set(ctx, "k", "v", time.Minute)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live before TTL")
	}
	current = current.Add(2 * time.Minute)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("entry should expire after TTL")
	}
}

func TestNoop_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var s Store = Noop{}
	if s.Set(ctx, "k", "v", 0) {
		t.Error("noop set reports dropped write")
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("noop always misses")
	}
	if s.Delete(ctx, "k") {
		t.Error("noop delete removes nothing")
	}
}
