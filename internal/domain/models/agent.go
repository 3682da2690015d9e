package models

import "time"

// AgentStatus is the terminal outcome of one agent run within a pass.
type AgentStatus string

const (
	StatusCompleted AgentStatus = "completed"
	StatusFailed    AgentStatus = "failed"
	StatusTimedOut  AgentStatus = "timed_out"
	StatusBlocked   AgentStatus = "blocked"
)

// IsValidAgentStatus returns true if s is a recognized status.
func IsValidAgentStatus(s AgentStatus) bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut, StatusBlocked:
		return true
	default:
		return false
	}
}

// ResourceFootprint declares an agent's static resource demand.
type ResourceFootprint struct {
	MemoryMB   int
	CPUPercent int
}

// AgentSpec is static capability metadata for one agent.
// Loaded at startup, read-only during a pass.
type AgentSpec struct {
	Name            string
	Category        string // "filter", "analysis", "prediction"
	Priority        int    // lower runs earlier
	TypicalDuration time.Duration
	Dependencies    []string
	Resources       ResourceFootprint
}

// AgentInput is the payload handed to one agent. Built once per agent
// from the shared base input plus per-agent overrides; never mutated.
type AgentInput struct {
	Text     string
	Symbol   string
	Metadata map[string]any
}

// RawPayload is the opaque map an executor returns before validation
// maps it into a typed AgentPayload.
type RawPayload map[string]any

// AgentResult records the outcome of one agent run. Exactly one exists
// per attempted agent per pass; immutable once created.
type AgentResult struct {
	AgentName     string
	Status        AgentStatus
	Raw           RawPayload
	Payload       *AgentPayload // set only when Status == StatusCompleted
	Err           string
	ExecutionTime time.Duration
	StartedAt     time.Time
}
