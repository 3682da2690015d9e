package service

import (
	"context"
	"time"

	"MarketMind/internal/domain/models"
)

// AgentExecutor runs a named agent against an input. Implementations must
// respect the timeout; the scheduler records an overrun as timed out.
type AgentExecutor interface {
	Execute(ctx context.Context, agentName string, input models.AgentInput, timeout time.Duration) (models.RawPayload, error)
}

// GovernanceGate is the admission authority consulted before every agent
// run. Implementations must be safe under concurrent calls; the scheduler
// does not serialize access.
type GovernanceGate interface {
	CheckAdmission(agentName string) (allowed bool, reason string)
	RegisterExecution(agentName string)
	UnregisterExecution(agentName string)
}

// CapabilityTable exposes the static agent metadata. Read-only during a pass.
type CapabilityTable interface {
	ListAgents() []string
	GetSpec(agentName string) (models.AgentSpec, bool)
}

// Classifier decides which agents are relevant for an item.
type Classifier interface {
	Classify(ctx context.Context, item *models.NewsItem) (models.Classification, error)
}
