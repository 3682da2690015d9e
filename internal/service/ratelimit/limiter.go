package ratelimit

import (
	"sync"
	"time"
)

// Limiter holds one token bucket per key. Buckets are created on first
// use with the capacity and refill rate given to Allow, so different
// keys may carry different budgets.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time
}

type tokenBucket struct {
	tokens   float64
	capacity float64
	refill   float64 // tokens per second
	lastTick time.Time
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*tokenBucket), now: time.Now}
}

// Allow consumes one token for key if available.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: capacity, capacity: capacity, refill: refillPerSec, lastTick: now}
		l.buckets[key] = b
	}
	b.advance(now)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Tokens reports the current budget for key, refilled to now.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return 0
	}
	b.advance(l.now())
	return b.tokens
}

func (b *tokenBucket) advance(now time.Time) {
	elapsed := now.Sub(b.lastTick).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refill
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastTick = now
}
