package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaNewsHandlerProcessesMessage(t *testing.T) {
	store := &memStore{}
	h := NewKafkaNewsHandler("news.items", newTestAnalyzer(t, store), nopMetrics{})

	assert.Equal(t, "news.items", h.Topic())

	msg, err := json.Marshal(map[string]any{
		"id":           "n1",
		"symbol":       "AAPL",
		"headline":     "Apple beats earnings with record revenue growth",
		"body":         "Guidance raised.",
		"source":       "wire",
		"published_at": time.Now().Unix(),
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, store.stored, 1)
	assert.Equal(t, "AAPL", store.stored[0].Symbol)
}

func TestKafkaNewsHandlerMillisecondTimestamps(t *testing.T) {
	store := &memStore{}
	h := NewKafkaNewsHandler("news.items", newTestAnalyzer(t, store), nopMetrics{})

	now := time.Now()
	msg, _ := json.Marshal(map[string]any{
		"id":           "n1",
		"symbol":       "AAPL",
		"headline":     "Fed signals inflation pause",
		"published_at": now.UnixMilli(),
	})

	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, store.stored, 1)
}

func TestKafkaNewsHandlerRejectsMalformedJSON(t *testing.T) {
	h := NewKafkaNewsHandler("news.items", newTestAnalyzer(t, &memStore{}), nopMetrics{})
	assert.Error(t, h.Handle(context.Background(), []byte("{not json")))
}

func TestAnalysisJobParsesQueuedPayload(t *testing.T) {
	store := &memStore{}
	job := NewAnalysisJob(newTestAnalyzer(t, store))

	assert.Equal(t, AnalysisRequestType, job.Type())

	payload := map[string]interface{}{
		"id":       "req-1",
		"symbol":   "MSFT",
		"headline": "Microsoft unveils new product line",
		"source":   "api",
	}
	require.NoError(t, job.Handle(context.Background(), payload))
	require.Len(t, store.stored, 1)
	assert.Equal(t, "MSFT", store.stored[0].Symbol)
}

func TestAnalysisJobGeneratesIDWhenMissing(t *testing.T) {
	store := &memStore{}
	job := NewAnalysisJob(newTestAnalyzer(t, store))

	require.NoError(t, job.Handle(context.Background(), map[string]interface{}{
		"symbol":   "AAPL",
		"headline": "Dividend raise announced for shareholders",
	}))
	assert.Len(t, store.stored, 1)
}

func TestAnalysisJobRejectsBadPayload(t *testing.T) {
	job := NewAnalysisJob(newTestAnalyzer(t, &memStore{}))
	assert.Error(t, job.Handle(context.Background(), 42))
}
