package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeForms(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	got, ok := ParseTime("2025-06-01T12:30:00Z")
	if !ok || !got.Equal(want) {
		t.Fatalf("rfc3339: got %v ok=%v", got, ok)
	}

	got, ok = ParseTime(strconv.FormatInt(want.Unix(), 10))
	if !ok || got.Unix() != want.Unix() {
		t.Fatalf("unix: got %v ok=%v", got, ok)
	}

	if _, ok := ParseTime("not a time"); ok {
		t.Fatal("expected parse failure")
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("got %v, want default", got)
	}
}

func TestBoundWindow(t *testing.T) {
	to := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	from := to.Add(-48 * time.Hour)

	f, tt := BoundWindow(from, to, 24*time.Hour)
	if tt.Sub(f) != 24*time.Hour || !tt.Equal(to) {
		t.Fatalf("cap: got %v..%v", f, tt)
	}

	f, tt = BoundWindow(to, from, 0)
	if f.After(tt) {
		t.Fatalf("swap: got %v..%v", f, tt)
	}
}
