package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketMind/internal/agents"
	"MarketMind/internal/domain/models"
	"MarketMind/internal/fusion"
	"MarketMind/internal/scheduler"
	applogger "MarketMind/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)          {}
func (nopMetrics) RecordError(string)                        {}
func (nopMetrics) RecordAgentRun(string, models.AgentStatus) {}
func (nopMetrics) RecordPassConfidence(string, float64)      {}
func (nopMetrics) RecordLatency(string, float64)             {}

type openGate struct{}

func (openGate) CheckAdmission(string) (bool, string) { return true, "" }
func (openGate) RegisterExecution(string)             {}
func (openGate) UnregisterExecution(string)           {}

// memStore records stored results in memory.
type memStore struct {
	mu      sync.Mutex
	stored  []*models.AggregationResult
	failing bool
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) Store(_ context.Context, r *models.AggregationResult) error {
	if s.failing {
		return errors.New("store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, r)
	return nil
}

func (s *memStore) StoreBatch(ctx context.Context, rs []*models.AggregationResult) error {
	for _, r := range rs {
		if err := s.Store(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) QueryRecent(context.Context, string, time.Time, time.Time, int) ([]*models.AggregationResult, error) {
	return nil, nil
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func newTestPass(t *testing.T) *AnalysisPass {
	t.Helper()
	table := agents.NewStaticTable(agents.DefaultSpecs()...)
	sched := scheduler.New(table, openGate{}, agents.NewRegistry(), nopMetrics{}, testLogger(t), scheduler.Config{
		AgentTimeout:  2 * time.Second,
		MaxConcurrent: 3,
	})
	engine := fusion.NewEngine(fusion.DefaultConfig(), nopMetrics{}, testLogger(t))
	return NewAnalysisPass(sched, engine, nopMetrics{}, testLogger(t))
}

func newsItem() *models.NewsItem {
	return &models.NewsItem{
		ID:          "n1",
		Symbol:      "AAPL",
		Headline:    "Apple beats earnings with record revenue growth",
		Body:        "Strong quarter; guidance raised on robust demand.",
		Source:      "wire",
		PublishedAt: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
}

func TestAnalysisPassProducesCompleteResult(t *testing.T) {
	pass := newTestPass(t)
	cls := models.Classification{
		EventType:      "earnings_report",
		RequiredAgents: []string{"sentiment_agent", "keyword_agent", "entity_agent", "impact_agent", "trend_agent"},
		Confidence:     0.9,
	}

	res, err := pass.Run(context.Background(), cls, newsItem())
	require.NoError(t, err)

	assert.NotEmpty(t, res.PassID)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, "earnings_report", res.EventType)
	assert.NotEmpty(t, res.Results)
	assert.NotEmpty(t, res.Signals)
	assert.NotEmpty(t, res.Intelligence.Summary)
	assert.NotZero(t, res.CompletedAt)
	// all six selected agents (baseline included) ran to completion
	assert.Len(t, res.Results, 6)
	assert.InDelta(t, 1.0, res.Performance.SuccessRate, 1e-9)
}

func TestAnalysisPassFreshPassIDPerRun(t *testing.T) {
	pass := newTestPass(t)
	cls := models.Classification{EventType: "general_news", RequiredAgents: []string{"sentiment_agent"}}

	first, err := pass.Run(context.Background(), cls, newsItem())
	require.NoError(t, err)
	second, err := pass.Run(context.Background(), cls, newsItem())
	require.NoError(t, err)

	assert.NotEqual(t, first.PassID, second.PassID)
}

func TestAnalysisPassSelectionFailureSurfaces(t *testing.T) {
	table := agents.NewStaticTable() // nothing registered
	sched := scheduler.New(table, openGate{}, agents.NewRegistry(), nopMetrics{}, testLogger(t), scheduler.Config{})
	engine := fusion.NewEngine(fusion.DefaultConfig(), nopMetrics{}, testLogger(t))
	pass := NewAnalysisPass(sched, engine, nopMetrics{}, testLogger(t))

	_, err := pass.Run(context.Background(), models.Classification{EventType: "general_news"}, newsItem())
	require.Error(t, err)
	var pf *models.PassFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "selection", pf.Stage)
}

func TestIntelligenceProcessorRoutesToStore(t *testing.T) {
	store := &memStore{}
	proc := NewIntelligenceProcessor(nil, store, nopMetrics{}, "clickhouse", 1, 0)

	res := &models.AggregationResult{PassID: "p1", Symbol: "AAPL"}
	require.NoError(t, proc.Process(context.Background(), res))
	require.Len(t, store.stored, 1)
	assert.Equal(t, "p1", store.stored[0].PassID)
}

func TestIntelligenceProcessorFlushesFullBatch(t *testing.T) {
	store := &memStore{}
	proc := NewIntelligenceProcessor(nil, store, nopMetrics{}, "clickhouse", 3, 0)

	require.NoError(t, proc.Process(context.Background(), &models.AggregationResult{PassID: "p1"}))
	require.NoError(t, proc.Process(context.Background(), &models.AggregationResult{PassID: "p2"}))
	assert.Empty(t, store.stored)

	require.NoError(t, proc.Process(context.Background(), &models.AggregationResult{PassID: "p3"}))
	require.Len(t, store.stored, 3)
	assert.Equal(t, "p1", store.stored[0].PassID)
}

func TestIntelligenceProcessorCloseFlushesRemainder(t *testing.T) {
	store := &memStore{}
	proc := NewIntelligenceProcessor(nil, store, nopMetrics{}, "clickhouse", 10, time.Minute)

	require.NoError(t, proc.Process(context.Background(), &models.AggregationResult{PassID: "p1"}))
	assert.Empty(t, store.stored)

	proc.Close()
	assert.Len(t, store.stored, 1)
}

func TestIntelligenceProcessorUnknownBackend(t *testing.T) {
	proc := NewIntelligenceProcessor(nil, &memStore{}, nopMetrics{}, "carrier-pigeon", 1, 0)
	err := proc.Process(context.Background(), &models.AggregationResult{PassID: "p1"})
	assert.Error(t, err)
}

func TestIntelligenceProcessorNilResult(t *testing.T) {
	proc := NewIntelligenceProcessor(nil, &memStore{}, nopMetrics{}, "clickhouse", 1, 0)
	assert.Error(t, proc.Process(context.Background(), nil))
}

func TestIntelligenceProcessorWrapsBackendError(t *testing.T) {
	store := &memStore{failing: true}
	proc := NewIntelligenceProcessor(nil, store, nopMetrics{}, "clickhouse", 1, 0)

	err := proc.Process(context.Background(), &models.AggregationResult{PassID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "process intelligence")
}
