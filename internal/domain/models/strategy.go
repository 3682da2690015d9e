package models

// ExecutionKind names a scheduler execution strategy.
type ExecutionKind string

const (
	ExecParallel      ExecutionKind = "parallel"
	ExecSequential    ExecutionKind = "sequential"
	ExecAdaptive      ExecutionKind = "adaptive"
	ExecPriorityBased ExecutionKind = "priority_based"
)

// ErrorHandling defines how a strategy reacts to a failed agent.
type ErrorHandling string

const (
	ErrContinue    ErrorHandling = "continue"
	ErrStopOnError ErrorHandling = "stop_on_error"
	ErrRetry       ErrorHandling = "retry"
	ErrFallback    ErrorHandling = "fallback"
)

// ExecutionStrategy is chosen once per pass and immutable for that pass.
type ExecutionStrategy struct {
	Kind          ExecutionKind
	MaxConcurrent int
	ErrorHandling ErrorHandling
}

// FusionKind names a fusion strategy.
type FusionKind string

const (
	FusionWeightedAverage FusionKind = "weighted_average"
	FusionBayesian        FusionKind = "bayesian"
	FusionEnsembleVoting  FusionKind = "ensemble_voting"
	FusionHierarchical    FusionKind = "hierarchical"
	FusionAdaptive        FusionKind = "adaptive"
)
