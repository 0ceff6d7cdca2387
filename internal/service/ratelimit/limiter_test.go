package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("expected request %d allowed", i+1)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatal("expected bucket exhausted")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 100) {
		t.Fatal("expected first request allowed")
	}
	if l.Allow("k", 1, 100) {
		t.Fatal("expected bucket empty")
	}
	time.Sleep(50 * time.Millisecond)
	if !l.Allow("k", 1, 100) {
		t.Fatal("expected bucket refilled")
	}
}

func TestIdleBucketsEvicted(t *testing.T) {
	l := New()
	l.Allow("stale", 1, 0)
	l.Allow("fresh", 1, 0)

	past := time.Now().Add(-2 * idleEviction)
	l.m["stale"].last = past
	l.lastSweep = past

	l.Allow("fresh", 1, 0)
	if _, ok := l.m["stale"]; ok {
		t.Fatal("expected idle bucket evicted")
	}
	if _, ok := l.m["fresh"]; !ok {
		t.Fatal("expected active bucket kept")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatal("expected key a allowed")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("expected key b unaffected by key a")
	}
}
