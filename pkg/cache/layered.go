package cache

import (
	"context"
	"time"
)

// Layered fronts a remote Store with an in-process Memory layer.
// Writes go through to both; reads populate the memory layer on a
// remote hit so hot keys stay local.
type Layered struct {
	local  *Memory
	remote Store
	// localTTL bounds staleness of the read-through copies.
	localTTL time.Duration
}

// NewLayered creates the two-level store.
func NewLayered(remote Store, opts ...LayeredOption) *Layered {
	cfg := &LayeredConfig{LocalMaxEntries: 1000, LocalTTL: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Layered{
		local:    NewMemory(WithMaxEntries(cfg.LocalMaxEntries)),
		remote:   remote,
		localTTL: cfg.LocalTTL,
	}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, error) {
	if b, err := l.local.Get(ctx, key); err == nil {
		return b, nil
	}
	b, err := l.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = l.local.Set(ctx, key, b, l.localTTL)
	return b, nil
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := l.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	localTTL := l.localTTL
	if ttl > 0 && ttl < localTTL {
		localTTL = ttl
	}
	return l.local.Set(ctx, key, value, localTTL)
}

func (l *Layered) Delete(ctx context.Context, keys ...string) error {
	_ = l.local.Delete(ctx, keys...)
	return l.remote.Delete(ctx, keys...)
}

func (l *Layered) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := l.local.Exists(ctx, key); ok {
		return true, nil
	}
	return l.remote.Exists(ctx, key)
}

// Close closes both layers, keeping the first error.
func (l *Layered) Close() error {
	lerr := l.local.Close()
	rerr := l.remote.Close()
	if lerr != nil {
		return lerr
	}
	return rerr
}

var _ Store = (*Layered)(nil)
var _ Store = (*Memory)(nil)
var _ Store = (*Redis)(nil)
