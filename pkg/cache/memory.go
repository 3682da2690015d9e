package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key      string
	value    []byte
	expireAt time.Time
}

// Memory is an in-process Store with LRU eviction and a background
// sweep for expired entries.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	max     int
	stop    chan struct{}
	once    sync.Once
}

// NewMemory creates an in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	cfg := &MemoryConfig{MaxEntries: 1000, SweepInterval: 5 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	m := &Memory{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		max:     cfg.MaxEntries,
		stop:    make(chan struct{}),
	}
	go m.sweep(cfg.SweepInterval)
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	e := el.Value.(*memoryEntry)
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		m.removeLocked(el)
		return nil, ErrMiss
	}
	m.order.MoveToFront(el)
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value = value
		e.expireAt = expireAt
		m.order.MoveToFront(el)
		return nil
	}
	for m.max > 0 && len(m.entries) >= m.max {
		if back := m.order.Back(); back != nil {
			m.removeLocked(back)
		}
	}
	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, value: value, expireAt: expireAt})
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if el, ok := m.entries[k]; ok {
			m.removeLocked(el)
		}
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	e := el.Value.(*memoryEntry)
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		m.removeLocked(el)
		return false, nil
	}
	return true, nil
}

// Close stops the background sweep.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) removeLocked(el *list.Element) {
	e := el.Value.(*memoryEntry)
	m.order.Remove(el)
	delete(m.entries, e.key)
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for el := m.order.Back(); el != nil; {
				prev := el.Prev()
				e := el.Value.(*memoryEntry)
				if !e.expireAt.IsZero() && now.After(e.expireAt) {
					m.removeLocked(el)
				}
				el = prev
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}
