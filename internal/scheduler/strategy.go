package scheduler

import (
	"fmt"

	"MarketMind/internal/domain/models"
)

// StrategyRule maps a condition over the selected agent set to an
// execution strategy. Rules are evaluated top to bottom; the first
// match wins.
type StrategyRule struct {
	Name     string
	Match    func(specs []models.AgentSpec) bool
	Strategy models.ExecutionStrategy
}

// DefaultRules returns the ordered strategy rule table.
func DefaultRules(maxConcurrent int) []StrategyRule {
	return []StrategyRule{
		{
			Name:  "small_set",
			Match: func(specs []models.AgentSpec) bool { return len(specs) <= 2 },
			Strategy: models.ExecutionStrategy{
				Kind:          models.ExecSequential,
				MaxConcurrent: 1,
				ErrorHandling: models.ErrStopOnError,
			},
		},
		{
			Name: "critical_priority",
			Match: func(specs []models.AgentSpec) bool {
				if len(specs) > 4 {
					return false
				}
				for _, sp := range specs {
					if sp.Priority <= 2 {
						return true
					}
				}
				return false
			},
			Strategy: models.ExecutionStrategy{
				Kind:          models.ExecPriorityBased,
				MaxConcurrent: maxConcurrent,
				ErrorHandling: models.ErrContinue,
			},
		},
		{
			Name: "heavy_memory",
			Match: func(specs []models.AgentSpec) bool {
				for _, sp := range specs {
					if sp.Resources.MemoryMB > 512 {
						return true
					}
				}
				return false
			},
			Strategy: models.ExecutionStrategy{
				Kind:          models.ExecAdaptive,
				MaxConcurrent: maxConcurrent,
				ErrorHandling: models.ErrContinue,
			},
		},
		{
			Name:  "default",
			Match: func(specs []models.AgentSpec) bool { return true },
			Strategy: models.ExecutionStrategy{
				Kind:          models.ExecParallel,
				MaxConcurrent: maxConcurrent,
				ErrorHandling: models.ErrContinue,
			},
		},
	}
}

// ChooseStrategy evaluates the rule table over the selected agents.
func ChooseStrategy(specs []models.AgentSpec, rules []StrategyRule) (models.ExecutionStrategy, error) {
	if len(rules) == 0 {
		return models.ExecutionStrategy{}, fmt.Errorf("empty strategy rule table")
	}
	for _, rule := range rules {
		if rule.Match(specs) {
			return rule.Strategy, nil
		}
	}
	return models.ExecutionStrategy{}, fmt.Errorf("no strategy rule matched %d agents", len(specs))
}
