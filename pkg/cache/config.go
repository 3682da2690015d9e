package cache

import "time"

// RedisOption configures the redis store.
type RedisOption func(*RedisConfig)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	Prefix       string
}

func WithAddr(addr string) RedisOption {
	return func(c *RedisConfig) { c.Addr = addr }
}

func WithPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

func WithPool(size, minIdle int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = size
		c.MinIdleConns = minIdle
		c.PoolTimeout = timeout
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

// MemoryOption configures the in-process store.
type MemoryOption func(*MemoryConfig)

type MemoryConfig struct {
	MaxEntries    int
	SweepInterval time.Duration
}

func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryConfig) { c.MaxEntries = n }
}

func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *MemoryConfig) { c.SweepInterval = d }
}

// LayeredOption configures the two-level store.
type LayeredOption func(*LayeredConfig)

type LayeredConfig struct {
	LocalMaxEntries int
	LocalTTL        time.Duration
}

func WithLocalMaxEntries(n int) LayeredOption {
	return func(c *LayeredConfig) { c.LocalMaxEntries = n }
}

func WithLocalTTL(d time.Duration) LayeredOption {
	return func(c *LayeredConfig) { c.LocalTTL = d }
}
