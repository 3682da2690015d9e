package classify

import (
	"context"
	"testing"

	"MarketMind/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, headline, body string) models.Classification {
	t.Helper()
	cls, err := New().Classify(context.Background(), &models.NewsItem{
		Symbol:   "AAPL",
		Headline: headline,
		Body:     body,
	})
	require.NoError(t, err)
	return cls
}

func TestClassifyEarningsReport(t *testing.T) {
	cls := classify(t, "Apple earnings top estimates", "EPS and guidance raised")
	assert.Equal(t, "earnings_report", cls.EventType)
	assert.Contains(t, cls.RequiredAgents, "impact_agent")
	// three marker hits: earnings, eps, guidance
	assert.InDelta(t, 0.95, cls.Confidence, 1e-9)
}

func TestClassifyRegulatoryChange(t *testing.T) {
	cls := classify(t, "SEC opens probe into trading practices", "")
	assert.Equal(t, "regulatory_change", cls.EventType)
	assert.Contains(t, cls.RequiredAgents, "risk_agent")
}

func TestClassifyMacroEconomic(t *testing.T) {
	cls := classify(t, "Fed signals inflation concerns", "")
	assert.Equal(t, "macro_economic", cls.EventType)
}

func TestClassifyTradingSignal(t *testing.T) {
	cls := classify(t, "Analyst raises price target after rating review", "")
	assert.Equal(t, "trading_signal", cls.EventType)
	assert.Contains(t, cls.RequiredAgents, "trend_agent")
}

func TestClassifyRuleOrderWins(t *testing.T) {
	// both earnings and product-launch markers; earnings rule comes first
	cls := classify(t, "Company to announce earnings next week", "")
	assert.Equal(t, "earnings_report", cls.EventType)
}

func TestClassifyFallsBackToGeneralNews(t *testing.T) {
	cls := classify(t, "Quiet day on the markets", "")
	assert.Equal(t, "general_news", cls.EventType)
	assert.Equal(t, []string{"relevance_agent", "sentiment_agent", "keyword_agent"}, cls.RequiredAgents)
	assert.InDelta(t, 0.4, cls.Confidence, 1e-9)
}

func TestClassifyConfidenceScalesWithHits(t *testing.T) {
	one := classify(t, "earnings update", "")
	two := classify(t, "earnings and guidance update", "")
	assert.Greater(t, two.Confidence, one.Confidence)
}

func TestClassifyNilItem(t *testing.T) {
	_, err := New().Classify(context.Background(), nil)
	assert.Error(t, err)
}
