package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketMind/internal/domain/models"
	domrepo "MarketMind/internal/domain/repository"
	domsvc "MarketMind/internal/domain/service"
	applogger "MarketMind/pkg/logger"
)

// Config carries the scheduler tunables loaded from YAML.
type Config struct {
	BaselineAgent string        // prepended to every selection when absent
	AgentTimeout  time.Duration // per-agent run budget
	MaxConcurrent int           // batch size for parallel dispatch
	// Per-agent metadata overrides merged into AgentInput.Metadata,
	// e.g. target keyword lists for the keyword agent.
	Hints map[string]map[string]any
}

// Scheduler selects, orders, and runs agents for one pass, then
// validates and aggregates their results. No state survives a pass.
type Scheduler struct {
	table   domsvc.CapabilityTable
	gate    domsvc.GovernanceGate
	exec    domsvc.AgentExecutor
	metrics domrepo.Metrics
	logger  *applogger.Logger
	cfg     Config
}

// Report bundles everything the scheduler hands to the fusion engine.
type Report struct {
	Strategy    models.ExecutionStrategy
	Selected    []models.AgentSpec
	Attempted   int
	Results     []models.AgentResult // validated
	Raw         RawAggregation
	Performance models.PerformanceReport
}

// New creates a Scheduler. Zero config fields fall back to defaults.
func New(table domsvc.CapabilityTable, gate domsvc.GovernanceGate, exec domsvc.AgentExecutor, metrics domrepo.Metrics, logger *applogger.Logger, cfg Config) *Scheduler {
	if cfg.BaselineAgent == "" {
		cfg.BaselineAgent = "news_validation_agent"
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 5 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	return &Scheduler{table: table, gate: gate, exec: exec, metrics: metrics, logger: logger, cfg: cfg}
}

// Run executes one scheduling pass. Agent-level errors are contained as
// result data; only selection/strategy failures surface as PassFailure.
func (s *Scheduler) Run(ctx context.Context, cls models.Classification, base models.AgentInput) (*Report, error) {
	start := time.Now()

	selected, err := s.selectAgents(cls)
	if err != nil {
		return nil, models.NewPassFailure("selection", err)
	}
	ordered := orderAgents(selected)

	strategy, err := ChooseStrategy(ordered, DefaultRules(s.cfg.MaxConcurrent))
	if err != nil {
		return nil, models.NewPassFailure("strategy", err)
	}
	s.logger.Debug("execution strategy chosen",
		applogger.String("strategy", string(strategy.Kind)),
		applogger.Int("agents", len(ordered)))

	results := s.execute(ctx, strategy, ordered, base)
	validated := ValidateResults(results)
	raw := Aggregate(validated)
	perf := Performance(validated, time.Since(start))

	s.metrics.RecordLatency("scheduler_pass", time.Since(start).Seconds())
	return &Report{
		Strategy:    strategy,
		Selected:    ordered,
		Attempted:   len(results),
		Results:     validated,
		Raw:         raw,
		Performance: perf,
	}, nil
}

// selectAgents intersects the classifier's required agents with the
// capability table. Unknown names are dropped silently; the baseline
// validation agent is always in play.
func (s *Scheduler) selectAgents(cls models.Classification) ([]models.AgentSpec, error) {
	if s.table == nil {
		return nil, fmt.Errorf("capability table not configured")
	}
	required := cls.RequiredAgents
	hasBaseline := false
	for _, name := range required {
		if name == s.cfg.BaselineAgent {
			hasBaseline = true
			break
		}
	}
	if !hasBaseline {
		required = append([]string{s.cfg.BaselineAgent}, required...)
	}

	specs := make([]models.AgentSpec, 0, len(required))
	seen := make(map[string]bool, len(required))
	for _, name := range required {
		if seen[name] {
			continue
		}
		seen[name] = true
		spec, ok := s.table.GetSpec(name)
		if !ok {
			// unregistered agent; not an error
			s.logger.Debug("unregistered agent dropped", applogger.String("agent", name))
			continue
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no registered agents selected for event %q", cls.EventType)
	}
	return specs, nil
}

// runAgent performs one governed agent invocation. All exit paths
// release the governance registration.
func (s *Scheduler) runAgent(ctx context.Context, spec models.AgentSpec, base models.AgentInput) models.AgentResult {
	started := time.Now()

	allowed, reason := s.gate.CheckAdmission(spec.Name)
	if !allowed {
		s.metrics.RecordAgentRun(spec.Name, models.StatusBlocked)
		s.logger.Warn("agent blocked by governance",
			applogger.String("agent", spec.Name),
			applogger.String("reason", reason))
		return models.AgentResult{
			AgentName: spec.Name,
			Status:    models.StatusBlocked,
			Err:       reason,
			StartedAt: started,
		}
	}

	s.gate.RegisterExecution(spec.Name)
	defer s.gate.UnregisterExecution(spec.Name)

	raw, err := s.safeExecute(ctx, spec, s.buildInput(spec, base))
	elapsed := time.Since(started)

	res := models.AgentResult{
		AgentName:     spec.Name,
		Raw:           raw,
		ExecutionTime: elapsed,
		StartedAt:     started,
	}
	switch {
	case err == nil:
		res.Status = models.StatusCompleted
	case errors.Is(err, context.DeadlineExceeded):
		res.Status = models.StatusTimedOut
		res.Err = fmt.Sprintf("agent %s exceeded %s", spec.Name, s.cfg.AgentTimeout)
		res.Raw = nil
	default:
		res.Status = models.StatusFailed
		res.Err = err.Error()
		res.Raw = nil
	}
	s.metrics.RecordAgentRun(spec.Name, res.Status)
	s.metrics.RecordLatency("agent_run", elapsed.Seconds())
	return res
}

// safeExecute bounds one executor call with the per-agent timeout and
// converts a panic into an error.
func (s *Scheduler) safeExecute(ctx context.Context, spec models.AgentSpec, input models.AgentInput) (raw models.RawPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = fmt.Errorf("agent %s panic: %v", spec.Name, r)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.AgentTimeout)
	defer cancel()

	raw, err = s.exec.Execute(runCtx, spec.Name, input, s.cfg.AgentTimeout)
	if err == nil && runCtx.Err() != nil {
		return nil, runCtx.Err()
	}
	return raw, err
}

// buildInput derives the per-agent input from the shared base plus
// configured hints. The base is never mutated.
func (s *Scheduler) buildInput(spec models.AgentSpec, base models.AgentInput) models.AgentInput {
	meta := make(map[string]any, len(base.Metadata)+2)
	for k, v := range base.Metadata {
		meta[k] = v
	}
	meta["agent_category"] = spec.Category
	for k, v := range s.cfg.Hints[spec.Name] {
		meta[k] = v
	}
	return models.AgentInput{Text: base.Text, Symbol: base.Symbol, Metadata: meta}
}
