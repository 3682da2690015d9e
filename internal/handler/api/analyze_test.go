package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketMind/internal/agents"
	"MarketMind/internal/domain/models"
	"MarketMind/internal/fusion"
	"MarketMind/internal/governance"
	"MarketMind/internal/scheduler"
	"MarketMind/internal/service/classify"
	"MarketMind/internal/usecase"
	applogger "MarketMind/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)          {}
func (nopMetrics) RecordError(string)                        {}
func (nopMetrics) RecordAgentRun(string, models.AgentStatus) {}
func (nopMetrics) RecordPassConfidence(string, float64)      {}
func (nopMetrics) RecordLatency(string, float64)             {}

type stubStorage struct {
	recent []*models.AggregationResult
}

func (s *stubStorage) Init(context.Context) error                              { return nil }
func (s *stubStorage) Store(context.Context, *models.AggregationResult) error  { return nil }
func (s *stubStorage) StoreBatch(context.Context, []*models.AggregationResult) error { return nil }
func (s *stubStorage) QueryRecent(context.Context, string, time.Time, time.Time, int) ([]*models.AggregationResult, error) {
	return s.recent, nil
}
func (s *stubStorage) Health(context.Context) error { return nil }
func (s *stubStorage) Close() error                 { return nil }

func newTestHandler(t *testing.T) (*AnalyzeHandler, *echo.Echo) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)

	table := agents.NewStaticTable(agents.DefaultSpecs()...)
	gate := governance.New(governance.Config{})
	sched := scheduler.New(table, gate, agents.NewRegistry(), nopMetrics{}, l, scheduler.Config{
		AgentTimeout:  2 * time.Second,
		MaxConcurrent: 3,
	})
	engine := fusion.NewEngine(fusion.DefaultConfig(), nopMetrics{}, l)
	pass := usecase.NewAnalysisPass(sched, engine, nopMetrics{}, l)

	h := NewAnalyzeHandler(l, classify.New(), pass, &stubStorage{
		recent: []*models.AggregationResult{{PassID: "p1", Symbol: "AAPL"}},
	}, table, gate, nil)

	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func TestAnalyzeEndpointRunsPass(t *testing.T) {
	_, e := newTestHandler(t)

	body := `{"symbol":"AAPL","headline":"Apple beats earnings with record revenue growth","body":"Guidance raised."}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			PassID    string `json:"PassID"`
			Symbol    string `json:"Symbol"`
			EventType string `json:"EventType"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "AAPL", resp.Data.Symbol)
	assert.Equal(t, "earnings_report", resp.Data.EventType)
	assert.NotEmpty(t, resp.Data.PassID)
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	_, e := newTestHandler(t)

	// missing headline
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"symbol":"AAPL"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestAnalyzeAsyncWithoutQueue(t *testing.T) {
	_, e := newTestHandler(t)

	body := `{"symbol":"AAPL","headline":"Apple beats earnings estimates"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/async", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestAgentsEndpointListsCapabilities(t *testing.T) {
	_, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Name     string `json:"Name"`
			Category string `json:"Category"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 8)
}

func TestGovernanceEndpointReturnsStats(t *testing.T) {
	h, e := newTestHandler(t)
	h.gate.RegisterExecution("sentiment_agent")
	h.gate.UnregisterExecution("sentiment_agent")

	req := httptest.NewRequest(http.MethodGet, "/api/governance", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]struct {
			Executions uint64 `json:"executions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Data, "sentiment_agent")
	assert.Equal(t, uint64(1), resp.Data["sentiment_agent"].Executions)
}

func TestRecentIntelligenceEndpoint(t *testing.T) {
	_, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/intelligence/recent?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Rows  []json.RawMessage `json:"rows"`
			Total int64             `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Total)
	assert.Len(t, resp.Data.Rows, 1)
}

func TestRecentIntelligenceRequiresSymbol(t *testing.T) {
	_, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/intelligence/recent", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}
