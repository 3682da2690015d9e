package agents

import (
	"context"
	"testing"
	"time"

	"MarketMind/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, name, text string) models.RawPayload {
	t.Helper()
	r := NewRegistry()
	raw, err := r.Execute(context.Background(), name, models.AgentInput{Text: text, Symbol: "AAPL"}, time.Second)
	require.NoError(t, err)
	return raw
}

func TestRegistryCoversDefaultSpecs(t *testing.T) {
	r := NewRegistry()
	for _, sp := range DefaultSpecs() {
		_, ok := r.agents[sp.Name]
		assert.True(t, ok, "missing local agent for %s", sp.Name)
	}
}

func TestExecuteUnknownAgent(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "mystery_agent", models.AgentInput{}, time.Second)
	assert.Error(t, err)
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	r := NewRegistry()
	r.Register("slow_agent", func(ctx context.Context, _ models.AgentInput) (models.RawPayload, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Execute(ctx, "slow_agent", models.AgentInput{}, time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestValidationAgentFlagsThinInput(t *testing.T) {
	r := NewRegistry()
	raw, err := r.Execute(context.Background(), "news_validation_agent", models.AgentInput{Text: "short"}, time.Second)
	require.NoError(t, err)

	assert.Equal(t, false, raw["valid"])
	issues := raw["issues"].([]string)
	assert.Contains(t, issues, "missing_symbol")
	assert.Contains(t, issues, "text_too_short")
}

func TestValidationAgentAcceptsGoodInput(t *testing.T) {
	raw := run(t, "news_validation_agent", "Apple beats earnings expectations with record revenue growth")
	assert.Equal(t, true, raw["valid"])
	assert.InDelta(t, 0.95, raw["confidence"].(float64), 1e-9)
}

func TestSentimentAgentPolarity(t *testing.T) {
	raw := run(t, "sentiment_agent", "shares surge on strong profit growth")
	assert.Greater(t, raw["polarity"].(float64), 0.1)
	assert.Equal(t, "positive", raw["label"])

	raw = run(t, "sentiment_agent", "lawsuit and layoffs trigger sharp decline")
	assert.Less(t, raw["polarity"].(float64), -0.1)
	assert.Equal(t, "negative", raw["label"])

	raw = run(t, "sentiment_agent", "the company announced a meeting")
	assert.Zero(t, raw["polarity"].(float64))
	assert.InDelta(t, 0.3, raw["confidence"].(float64), 1e-9)
}

func TestKeywordAgentHonorsTargetHint(t *testing.T) {
	r := NewRegistry()
	raw, err := r.Execute(context.Background(), "keyword_agent", models.AgentInput{
		Text:     "Merger talks stall over revenue guidance",
		Metadata: map[string]any{"target_keywords": []string{"merger", "dividend"}},
	}, time.Second)
	require.NoError(t, err)

	assert.Equal(t, []string{"merger"}, raw["found_keywords"])
}

func TestKeywordAgentDefaultLexicon(t *testing.T) {
	raw := run(t, "keyword_agent", "Earnings beat and dividend raise announced")
	found := raw["found_keywords"].([]string)
	assert.Contains(t, found, "earnings")
	assert.Contains(t, found, "dividend")
}

func TestEntityAgentFindsTickersAndOrgs(t *testing.T) {
	raw := run(t, "entity_agent", "MSFT and Acme Corp announce partnership")
	symbols := raw["symbols"].([]string)
	assert.Contains(t, symbols, "MSFT")
	assert.Contains(t, symbols, "AAPL") // input symbol always included
	assert.Contains(t, raw["organizations"].([]string), "Acme Corp")
}

func TestRiskAgentSeverity(t *testing.T) {
	raw := run(t, "risk_agent", "investigation and litigation raise uncertainty and volatility")
	assert.Negative(t, raw["polarity"].(float64))
	assert.Equal(t, "negative", raw["label"])

	raw = run(t, "risk_agent", "quiet quarter with steady performance")
	assert.Zero(t, raw["polarity"].(float64))
}

func TestImpactAgentDirection(t *testing.T) {
	raw := run(t, "impact_agent", "record earnings beat sends shares higher on strong growth")
	assert.Equal(t, "up", raw["direction"])
	assert.Greater(t, raw["magnitude"].(float64), 0.0)

	raw = run(t, "impact_agent", "bankruptcy warning follows fraud probe and losses")
	assert.Equal(t, "down", raw["direction"])
}

func TestTrendAgentDirection(t *testing.T) {
	raw := run(t, "trend_agent", "momentum builds as breakout confirms uptrend")
	assert.Equal(t, "up", raw["direction"])

	raw = run(t, "trend_agent", "nothing notable in the filing")
	assert.Equal(t, "flat", raw["direction"])
	assert.InDelta(t, 0.35, raw["confidence"].(float64), 1e-9)
}
