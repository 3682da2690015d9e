package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketMind/internal/domain/models"
	applogger "MarketMind/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

// fakeTable serves specs from a map.
type fakeTable struct {
	specs map[string]models.AgentSpec
}

func newFakeTable(specs ...models.AgentSpec) *fakeTable {
	t := &fakeTable{specs: make(map[string]models.AgentSpec, len(specs))}
	for _, sp := range specs {
		t.specs[sp.Name] = sp
	}
	return t
}

func (t *fakeTable) ListAgents() []string {
	out := make([]string, 0, len(t.specs))
	for name := range t.specs {
		out = append(out, name)
	}
	return out
}

func (t *fakeTable) GetSpec(name string) (models.AgentSpec, bool) {
	sp, ok := t.specs[name]
	return sp, ok
}

// fakeGate admits everything unless a name is listed in deny, and
// counts register/unregister calls.
type fakeGate struct {
	mu          sync.Mutex
	deny        map[string]string // name -> reason
	registered  map[string]int
	unregisters map[string]int
}

func newFakeGate() *fakeGate {
	return &fakeGate{
		deny:        make(map[string]string),
		registered:  make(map[string]int),
		unregisters: make(map[string]int),
	}
}

func (g *fakeGate) CheckAdmission(name string) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if reason, ok := g.deny[name]; ok {
		return false, reason
	}
	return true, ""
}

func (g *fakeGate) RegisterExecution(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registered[name]++
}

func (g *fakeGate) UnregisterExecution(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unregisters[name]++
}

// fakeExec runs a per-agent function and tracks the maximum number of
// simultaneous invocations.
type fakeExec struct {
	mu      sync.Mutex
	fn      func(name string, input models.AgentInput) (models.RawPayload, error)
	delay   time.Duration
	calls   []string
	current int
	maxSeen int
}

func (e *fakeExec) Execute(ctx context.Context, name string, input models.AgentInput, _ time.Duration) (models.RawPayload, error) {
	e.mu.Lock()
	e.calls = append(e.calls, name)
	e.current++
	if e.current > e.maxSeen {
		e.maxSeen = e.current
	}
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			e.done()
			return nil, ctx.Err()
		}
	}
	e.done()
	if e.fn != nil {
		return e.fn(name, input)
	}
	return models.RawPayload{"valid": true, "confidence": 0.9}, nil
}

func (e *fakeExec) done() {
	e.mu.Lock()
	e.current--
	e.mu.Unlock()
}

func (e *fakeExec) called(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.calls {
		if c == name {
			return true
		}
	}
	return false
}

// nopMetrics satisfies the Metrics interface for tests.
type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)             {}
func (nopMetrics) RecordError(string)                           {}
func (nopMetrics) RecordAgentRun(string, models.AgentStatus)    {}
func (nopMetrics) RecordPassConfidence(string, float64)         {}
func (nopMetrics) RecordLatency(string, float64)                {}

func spec(name string, priority int, deps ...string) models.AgentSpec {
	return models.AgentSpec{Name: name, Category: "analysis", Priority: priority, Dependencies: deps}
}

func newTestScheduler(t *testing.T, table *fakeTable, gate *fakeGate, exec *fakeExec, cfg Config) *Scheduler {
	t.Helper()
	return New(table, gate, exec, nopMetrics{}, testLogger(t), cfg)
}

func TestSelectAgentsPrependsBaseline(t *testing.T) {
	table := newFakeTable(
		spec("news_validation_agent", 1),
		spec("sentiment_agent", 3),
		spec("keyword_agent", 3),
	)
	s := newTestScheduler(t, table, newFakeGate(), &fakeExec{}, Config{})

	specs, err := s.selectAgents(models.Classification{
		EventType:      "general_news",
		RequiredAgents: []string{"sentiment_agent", "keyword_agent"},
	})
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "news_validation_agent", specs[0].Name)
}

func TestSelectAgentsDropsUnknownSilently(t *testing.T) {
	table := newFakeTable(
		spec("news_validation_agent", 1),
		spec("sentiment_agent", 3),
	)
	s := newTestScheduler(t, table, newFakeGate(), &fakeExec{}, Config{})

	specs, err := s.selectAgents(models.Classification{
		RequiredAgents: []string{"sentiment_agent", "nonexistent_agent"},
	})
	require.NoError(t, err)
	names := make([]string, len(specs))
	for i, sp := range specs {
		names[i] = sp.Name
	}
	assert.Equal(t, []string{"news_validation_agent", "sentiment_agent"}, names)
}

func TestSelectAgentsDeduplicates(t *testing.T) {
	table := newFakeTable(spec("news_validation_agent", 1), spec("sentiment_agent", 3))
	s := newTestScheduler(t, table, newFakeGate(), &fakeExec{}, Config{})

	specs, err := s.selectAgents(models.Classification{
		RequiredAgents: []string{"sentiment_agent", "sentiment_agent", "news_validation_agent"},
	})
	require.NoError(t, err)
	assert.Len(t, specs, 2)
}

func TestRunFailsWhenNothingRegistered(t *testing.T) {
	s := newTestScheduler(t, newFakeTable(), newFakeGate(), &fakeExec{}, Config{})

	_, err := s.Run(context.Background(), models.Classification{EventType: "general_news"}, models.AgentInput{})
	require.Error(t, err)
	var pf *models.PassFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "selection", pf.Stage)
}

func TestParallelRespectsMaxConcurrent(t *testing.T) {
	specs := []models.AgentSpec{
		spec("a", 3), spec("b", 3), spec("c", 3),
		spec("d", 3), spec("e", 3), spec("f", 3),
	}
	exec := &fakeExec{delay: 20 * time.Millisecond}
	table := newFakeTable(specs...)
	s := newTestScheduler(t, table, newFakeGate(), exec, Config{MaxConcurrent: 2, AgentTimeout: time.Second})

	out := s.runParallel(context.Background(), models.ExecutionStrategy{
		Kind:          models.ExecParallel,
		MaxConcurrent: 2,
	}, specs, models.AgentInput{})

	require.Len(t, out, 6)
	assert.LessOrEqual(t, exec.maxSeen, 2)
	for _, r := range out {
		assert.Equal(t, models.StatusCompleted, r.Status)
	}
}

func TestSequentialStopsOnFailedOnly(t *testing.T) {
	specs := []models.AgentSpec{spec("a", 1), spec("b", 2), spec("c", 3)}
	exec := &fakeExec{
		fn: func(name string, _ models.AgentInput) (models.RawPayload, error) {
			if name == "b" {
				return nil, errors.New("boom")
			}
			return models.RawPayload{"valid": true}, nil
		},
	}
	s := newTestScheduler(t, newFakeTable(specs...), newFakeGate(), exec, Config{AgentTimeout: time.Second})

	out := s.runSequential(context.Background(), models.ExecutionStrategy{
		Kind:          models.ExecSequential,
		ErrorHandling: models.ErrStopOnError,
	}, specs, models.AgentInput{})

	require.Len(t, out, 2)
	assert.Equal(t, models.StatusCompleted, out[0].Status)
	assert.Equal(t, models.StatusFailed, out[1].Status)
	assert.False(t, exec.called("c"))
}

func TestSequentialContinuesPastTimeout(t *testing.T) {
	specs := []models.AgentSpec{spec("a", 1), spec("b", 2)}
	exec := &fakeExec{
		fn: func(name string, _ models.AgentInput) (models.RawPayload, error) {
			if name == "a" {
				return nil, context.DeadlineExceeded
			}
			return models.RawPayload{"valid": true}, nil
		},
	}
	s := newTestScheduler(t, newFakeTable(specs...), newFakeGate(), exec, Config{AgentTimeout: time.Second})

	out := s.runSequential(context.Background(), models.ExecutionStrategy{
		Kind:          models.ExecSequential,
		ErrorHandling: models.ErrStopOnError,
	}, specs, models.AgentInput{})

	require.Len(t, out, 2)
	assert.Equal(t, models.StatusTimedOut, out[0].Status)
	assert.Equal(t, models.StatusCompleted, out[1].Status)
}

func TestGovernanceDenialBlocksWithoutExecution(t *testing.T) {
	gate := newFakeGate()
	gate.deny["sentiment_agent"] = "rate_limited"
	exec := &fakeExec{}
	sp := spec("sentiment_agent", 3)
	s := newTestScheduler(t, newFakeTable(sp), gate, exec, Config{AgentTimeout: time.Second})

	res := s.runAgent(context.Background(), sp, models.AgentInput{})

	assert.Equal(t, models.StatusBlocked, res.Status)
	assert.Equal(t, "rate_limited", res.Err)
	assert.Zero(t, res.ExecutionTime)
	assert.False(t, exec.called("sentiment_agent"))
	assert.Zero(t, gate.registered["sentiment_agent"])
}

func TestRunAgentUnregistersAfterRun(t *testing.T) {
	gate := newFakeGate()
	sp := spec("sentiment_agent", 3)
	s := newTestScheduler(t, newFakeTable(sp), gate, &fakeExec{}, Config{AgentTimeout: time.Second})

	_ = s.runAgent(context.Background(), sp, models.AgentInput{})

	assert.Equal(t, 1, gate.registered["sentiment_agent"])
	assert.Equal(t, 1, gate.unregisters["sentiment_agent"])
}

func TestRunAgentRecoversPanic(t *testing.T) {
	exec := &fakeExec{
		fn: func(string, models.AgentInput) (models.RawPayload, error) {
			panic("agent blew up")
		},
	}
	sp := spec("sentiment_agent", 3)
	s := newTestScheduler(t, newFakeTable(sp), newFakeGate(), exec, Config{AgentTimeout: time.Second})

	res := s.runAgent(context.Background(), sp, models.AgentInput{})

	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Contains(t, res.Err, "panic")
}

func TestBuildInputMergesHintsWithoutMutatingBase(t *testing.T) {
	sp := spec("keyword_agent", 3)
	s := newTestScheduler(t, newFakeTable(sp), newFakeGate(), &fakeExec{}, Config{
		AgentTimeout: time.Second,
		Hints: map[string]map[string]any{
			"keyword_agent": {"target_keywords": []string{"merger"}},
		},
	})
	base := models.AgentInput{Text: "headline", Symbol: "AAPL", Metadata: map[string]any{"event_type": "general_news"}}

	input := s.buildInput(sp, base)

	assert.Equal(t, "analysis", input.Metadata["agent_category"])
	assert.Equal(t, []string{"merger"}, input.Metadata["target_keywords"])
	assert.NotContains(t, base.Metadata, "agent_category")
}

func TestRunEndToEndAggregates(t *testing.T) {
	table := newFakeTable(
		spec("news_validation_agent", 1),
		spec("sentiment_agent", 3),
		spec("keyword_agent", 3),
	)
	exec := &fakeExec{
		fn: func(name string, _ models.AgentInput) (models.RawPayload, error) {
			switch name {
			case "sentiment_agent":
				return models.RawPayload{"polarity": 0.6, "confidence": 0.8}, nil
			case "keyword_agent":
				return models.RawPayload{"found_keywords": []string{"growth"}}, nil
			default:
				return models.RawPayload{"valid": true, "confidence": 0.9}, nil
			}
		},
	}
	s := newTestScheduler(t, table, newFakeGate(), exec, Config{AgentTimeout: time.Second})

	report, err := s.Run(context.Background(), models.Classification{
		EventType:      "general_news",
		RequiredAgents: []string{"sentiment_agent", "keyword_agent"},
	}, models.AgentInput{Text: "strong growth ahead", Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Len(t, report.Raw.SuccessfulAgents, 3)
	// keyword payload carries no confidence; aggregate is over the other two
	assert.Len(t, report.Raw.ConfidenceScores, 2)
	assert.InDelta(t, 0.85, report.Raw.AggregateConfidence, 1e-9)
	assert.Equal(t, 1.0, report.Performance.SuccessRate)
}
