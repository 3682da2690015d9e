package scheduler

import (
	"context"
	"sync"

	"MarketMind/internal/domain/models"
)

// lightweightMemoryMB is the adaptive-strategy partition boundary.
const lightweightMemoryMB = 256

func (s *Scheduler) execute(ctx context.Context, strategy models.ExecutionStrategy, specs []models.AgentSpec, base models.AgentInput) []models.AgentResult {
	switch strategy.Kind {
	case models.ExecSequential:
		return s.runSequential(ctx, strategy, specs, base)
	case models.ExecAdaptive:
		return s.runAdaptive(ctx, strategy, specs, base)
	case models.ExecPriorityBased:
		return s.runPriorityBased(ctx, strategy, specs, base)
	default:
		return s.runParallel(ctx, strategy, specs, base)
	}
}

// runParallel dispatches agents in batches of MaxConcurrent. Each batch
// is fully awaited before the next starts; one agent's failure or
// timeout never cancels its batch siblings.
func (s *Scheduler) runParallel(ctx context.Context, strategy models.ExecutionStrategy, specs []models.AgentSpec, base models.AgentInput) []models.AgentResult {
	out := make([]models.AgentResult, len(specs))
	batch := strategy.MaxConcurrent
	if batch <= 0 {
		batch = 1
	}
	for start := 0; start < len(specs); start += batch {
		end := min(start+batch, len(specs))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = s.runAgent(ctx, specs[i], base)
			}(i)
		}
		wg.Wait()
	}
	return out
}

// runSequential runs agents one at a time in order. Under StopOnError a
// Failed result ends the pass; agents after it get no result at all.
// Blocked and TimedOut do not stop the sequence.
func (s *Scheduler) runSequential(ctx context.Context, strategy models.ExecutionStrategy, specs []models.AgentSpec, base models.AgentInput) []models.AgentResult {
	out := make([]models.AgentResult, 0, len(specs))
	for _, sp := range specs {
		res := s.runAgent(ctx, sp, base)
		out = append(out, res)
		if strategy.ErrorHandling == models.ErrStopOnError && res.Status == models.StatusFailed {
			break
		}
	}
	return out
}

// runAdaptive splits agents on memory footprint: lightweight agents run
// under the parallel rule first, heavyweight ones sequentially after.
func (s *Scheduler) runAdaptive(ctx context.Context, strategy models.ExecutionStrategy, specs []models.AgentSpec, base models.AgentInput) []models.AgentResult {
	light := make([]models.AgentSpec, 0, len(specs))
	heavy := make([]models.AgentSpec, 0)
	for _, sp := range specs {
		if sp.Resources.MemoryMB <= lightweightMemoryMB {
			light = append(light, sp)
		} else {
			heavy = append(heavy, sp)
		}
	}
	out := s.runParallel(ctx, strategy, light, base)
	return append(out, s.runSequential(ctx, strategy, heavy, base)...)
}

// runPriorityBased groups agents by equal priority and runs groups in
// ascending order. A singleton group runs directly; larger groups run
// under the parallel rule.
func (s *Scheduler) runPriorityBased(ctx context.Context, strategy models.ExecutionStrategy, specs []models.AgentSpec, base models.AgentInput) []models.AgentResult {
	out := make([]models.AgentResult, 0, len(specs))
	// specs are already priority-ordered, so equal priorities are runs
	for start := 0; start < len(specs); {
		end := start + 1
		for end < len(specs) && specs[end].Priority == specs[start].Priority {
			end++
		}
		group := specs[start:end]
		if len(group) == 1 {
			out = append(out, s.runAgent(ctx, group[0], base))
		} else {
			out = append(out, s.runParallel(ctx, strategy, group, base)...)
		}
		start = end
	}
	return out
}
