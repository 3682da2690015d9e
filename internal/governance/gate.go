package governance

import (
	"sync"

	domsvc "MarketMind/internal/domain/service"
	"MarketMind/internal/service/ratelimit"
)

// Config carries the governance tunables loaded from YAML.
type Config struct {
	MaxConcurrentPerAgent int     `yaml:"max_concurrent_per_agent"`
	MaxConcurrentGlobal   int     `yaml:"max_concurrent_global"`
	RateCapacity          float64 `yaml:"rate_capacity"`
	RateRefillPerSec      float64 `yaml:"rate_refill_per_sec"`
}

// Gate is the admission authority consulted before every agent run. It
// enforces per-agent and global concurrency caps plus a token-bucket
// rate limit, and keeps execution counters across passes. Safe for
// concurrent use.
type Gate struct {
	cfg     Config
	limiter *ratelimit.Limiter

	mu         sync.Mutex
	inFlight   map[string]int
	global     int
	execCounts map[string]uint64
	denials    map[string]uint64
}

// AgentStats is one agent's governance bookkeeping snapshot.
type AgentStats struct {
	InFlight   int    `json:"in_flight"`
	Executions uint64 `json:"executions"`
	Denials    uint64 `json:"denials"`
}

// New creates a Gate. Zero config fields fall back to defaults.
func New(cfg Config) *Gate {
	if cfg.MaxConcurrentPerAgent <= 0 {
		cfg.MaxConcurrentPerAgent = 2
	}
	if cfg.MaxConcurrentGlobal <= 0 {
		cfg.MaxConcurrentGlobal = 16
	}
	if cfg.RateCapacity <= 0 {
		cfg.RateCapacity = 30
	}
	if cfg.RateRefillPerSec <= 0 {
		cfg.RateRefillPerSec = 10
	}
	return &Gate{
		cfg:        cfg,
		limiter:    ratelimit.New(),
		inFlight:   make(map[string]int),
		execCounts: make(map[string]uint64),
		denials:    make(map[string]uint64),
	}
}

// CheckAdmission decides whether the named agent may run right now.
func (g *Gate) CheckAdmission(agentName string) (bool, string) {
	g.mu.Lock()
	if g.global >= g.cfg.MaxConcurrentGlobal {
		g.denials[agentName]++
		g.mu.Unlock()
		return false, "global_concurrency_limit"
	}
	if g.inFlight[agentName] >= g.cfg.MaxConcurrentPerAgent {
		g.denials[agentName]++
		g.mu.Unlock()
		return false, "agent_concurrency_limit"
	}
	g.mu.Unlock()

	if !g.limiter.Allow(agentName, g.cfg.RateCapacity, g.cfg.RateRefillPerSec) {
		g.mu.Lock()
		g.denials[agentName]++
		g.mu.Unlock()
		return false, "rate_limited"
	}
	return true, ""
}

// RegisterExecution records that the named agent started running.
func (g *Gate) RegisterExecution(agentName string) {
	g.mu.Lock()
	g.inFlight[agentName]++
	g.global++
	g.execCounts[agentName]++
	g.mu.Unlock()
}

// UnregisterExecution releases a registration. Called on every exit
// path, timeout and panic included.
func (g *Gate) UnregisterExecution(agentName string) {
	g.mu.Lock()
	if g.inFlight[agentName] > 0 {
		g.inFlight[agentName]--
	}
	if g.global > 0 {
		g.global--
	}
	g.mu.Unlock()
}

// Stats snapshots the per-agent bookkeeping for the ops API.
func (g *Gate) Stats() map[string]AgentStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]AgentStats, len(g.execCounts))
	for name := range g.execCounts {
		out[name] = AgentStats{
			InFlight:   g.inFlight[name],
			Executions: g.execCounts[name],
			Denials:    g.denials[name],
		}
	}
	for name, n := range g.denials {
		if _, ok := out[name]; !ok {
			out[name] = AgentStats{Denials: n}
		}
	}
	return out
}

var _ domsvc.GovernanceGate = (*Gate)(nil)
