package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (v, true, nil)", value, ok, err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	current := time.Now()
	m.now = func() time.Time { return current }

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if m.Len() != 0 {
		t.Fatalf("expected expired entry removed, have %d entries", m.Len())
	}
}

func TestMemoryNoExpiryForZeroTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	current := time.Now()
	m.now = func() time.Time { return current }

	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	current = current.Add(365 * 24 * time.Hour)
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Fatal("zero-TTL entry should not expire")
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", "v", 0)
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected deleted key to miss")
	}
}
