package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketMind/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)          {}
func (nopMetrics) RecordError(string)                        {}
func (nopMetrics) RecordAgentRun(string, models.AgentStatus) {}
func (nopMetrics) RecordPassConfidence(string, float64)      {}
func (nopMetrics) RecordLatency(string, float64)             {}

type recordingProc struct {
	mu    sync.Mutex
	items []*models.NewsItem
	err   error
}

func (p *recordingProc) Process(_ context.Context, item *models.NewsItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.items = append(p.items, item)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func item(symbol string) *models.NewsItem {
	return &models.NewsItem{
		ID:          "n1",
		Symbol:      symbol,
		Headline:    "headline",
		PublishedAt: time.Now(),
	}
}

func TestPipelineForwardsValidItem(t *testing.T) {
	proc := &recordingProc{}
	p := NewNewsPipeline(proc, nopMetrics{})

	require.NoError(t, p.Process(context.Background(), item("AAPL")))
	assert.Equal(t, 1, proc.count())
}

func TestPipelineRejectsInvalidItems(t *testing.T) {
	proc := &recordingProc{}
	p := NewNewsPipeline(proc, nopMetrics{})

	assert.Error(t, p.Process(context.Background(), nil))
	assert.Error(t, p.Process(context.Background(), &models.NewsItem{Headline: "x", PublishedAt: time.Now()}))
	assert.Error(t, p.Process(context.Background(), &models.NewsItem{Symbol: "AAPL", PublishedAt: time.Now()}))
	assert.Error(t, p.Process(context.Background(), &models.NewsItem{Symbol: "AAPL", Headline: "x"}))
	assert.Zero(t, proc.count())
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	p := NewNewsPipeline(proc, nopMetrics{}, WithMaxRPS(1))

	require.NoError(t, p.Process(context.Background(), item("AAPL")))
	// immediate second item for the same symbol is dropped silently
	require.NoError(t, p.Process(context.Background(), item("AAPL")))
	assert.Equal(t, 1, proc.count())

	// a different symbol is unaffected
	require.NoError(t, p.Process(context.Background(), item("MSFT")))
	assert.Equal(t, 2, proc.count())
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{err: errors.New("downstream down")}
	p := NewNewsPipeline(proc, nopMetrics{}, WithBufferSize(4))

	err := p.Process(context.Background(), item("AAPL"))
	require.Error(t, err)
	assert.Equal(t, 1, len(p.retryBuf))
}

func TestPipelineTransformApplied(t *testing.T) {
	proc := &recordingProc{}
	p := NewNewsPipeline(proc, nopMetrics{}, WithTransform(func(i *models.NewsItem) *models.NewsItem {
		i.Symbol = "NORMALIZED"
		return i
	}))

	require.NoError(t, p.Process(context.Background(), item("AAPL")))
	require.Equal(t, 1, proc.count())
	assert.Equal(t, "NORMALIZED", proc.items[0].Symbol)
}

func TestPipelineStartFlushesBuffer(t *testing.T) {
	proc := &recordingProc{err: errors.New("down")}
	p := NewNewsPipeline(proc, nopMetrics{}, WithBufferSize(4))

	_ = p.Process(context.Background(), item("AAPL"))
	require.Equal(t, 1, len(p.retryBuf))

	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return proc.count() == 1 }, time.Second, 10*time.Millisecond)
}
