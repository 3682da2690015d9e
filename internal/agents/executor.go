package agents

import (
	"context"
	"fmt"
	"time"

	"MarketMind/internal/domain/models"
	domsvc "MarketMind/internal/domain/service"
)

// AgentFunc is one local analysis agent: an opaque function from input
// to raw payload.
type AgentFunc func(ctx context.Context, input models.AgentInput) (models.RawPayload, error)

// Registry is the local AgentExecutor implementation. Agents are
// registered once at startup; Execute is safe for concurrent use.
type Registry struct {
	agents map[string]AgentFunc
}

// NewRegistry creates a registry with the built-in local agents.
func NewRegistry() *Registry {
	r := &Registry{agents: make(map[string]AgentFunc)}
	r.Register("news_validation_agent", validationAgent)
	r.Register("relevance_agent", relevanceAgent)
	r.Register("sentiment_agent", sentimentAgent)
	r.Register("keyword_agent", keywordAgent)
	r.Register("entity_agent", entityAgent)
	r.Register("risk_agent", riskAgent)
	r.Register("impact_agent", impactAgent)
	r.Register("trend_agent", trendAgent)
	return r
}

// Register adds or replaces an agent function.
func (r *Registry) Register(name string, fn AgentFunc) {
	r.agents[name] = fn
}

// Execute runs the named agent, honoring the context deadline set by
// the caller. The timeout parameter is advisory here; the scheduler
// already bounds ctx with it.
func (r *Registry) Execute(ctx context.Context, name string, input models.AgentInput, timeout time.Duration) (models.RawPayload, error) {
	fn, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("agent %q not registered", name)
	}

	type outcome struct {
		raw models.RawPayload
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		raw, err := fn(ctx, input)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("agent %s: %w", name, o.err)
		}
		return o.raw, nil
	}
}

var _ domsvc.AgentExecutor = (*Registry)(nil)
