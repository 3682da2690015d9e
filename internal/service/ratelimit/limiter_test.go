package ratelimit

import (
	"testing"
	"time"
)

func TestAllowDrainsBucket(t *testing.T) {
	l := New()
	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if !l.Allow("agent", 3, 1) {
			t.Fatalf("call %d should pass", i)
		}
	}
	if l.Allow("agent", 3, 1) {
		t.Fatal("bucket should be empty")
	}
}

func TestRefillRestoresTokens(t *testing.T) {
	l := New()
	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		l.Allow("agent", 2, 1)
	}
	if l.Allow("agent", 2, 1) {
		t.Fatal("expected deny before refill")
	}

	clock = clock.Add(1500 * time.Millisecond)
	if !l.Allow("agent", 2, 1) {
		t.Fatal("expected allow after refill")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	if !l.Allow("a", 1, 0) {
		t.Fatal("first a")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("a exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("b has its own bucket")
	}
}
