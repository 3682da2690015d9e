package fusion

import (
	"testing"

	"MarketMind/internal/domain/models"
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

func testEngine(t *testing.T) *Engine {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return NewEngine(DefaultConfig(), nopMetrics{}, l)
}

func c(name string, polarity, confidence float64) contributor {
	return contributor{name: name, polarity: polarity, label: polarityLabel(polarity), confidence: confidence}
}

func TestWeightedAverageComputesWeightedMean(t *testing.T) {
	e := testEngine(t)
	fused, ok := e.weightedAverage([]contributor{
		c("sentiment_agent", 0.8, 0.9),
		c("trend_agent", 0.2, 0.3),
	}, nil)
	require.True(t, ok)
	// (0.8*0.9 + 0.2*0.3) / (0.9+0.3) = 0.78/1.2 = 0.65
	assert.InDelta(t, 0.65, fused.Polarity, 1e-9)
	assert.InDelta(t, 0.6, fused.Confidence, 1e-9)
	assert.Equal(t, "positive", fused.Label)
}

func TestWeightedAverageZeroConfidenceNoDivision(t *testing.T) {
	e := testEngine(t)
	fused, ok := e.weightedAverage([]contributor{
		c("sentiment_agent", 0.8, 0),
		c("trend_agent", -0.4, 0),
	}, nil)
	require.True(t, ok)
	assert.Zero(t, fused.Polarity)
	assert.Zero(t, fused.Confidence)
	assert.Equal(t, "neutral", fused.Label)
}

func TestWeightedAverageEmptyDegrades(t *testing.T) {
	e := testEngine(t)
	_, ok := e.weightedAverage(nil, nil)
	assert.False(t, ok)
}

func TestBayesianShrinksTowardNeutralPrior(t *testing.T) {
	e := testEngine(t)
	fused, ok := e.bayesian([]contributor{c("sentiment_agent", 0.6, 1.0)}, nil)
	require.True(t, ok)
	// posterior = 0.3*0 + 0.7*0.6 = 0.42
	assert.InDelta(t, 0.42, fused.Polarity, 1e-9)
}

func TestEnsembleVotingOutrightMajority(t *testing.T) {
	e := testEngine(t)
	fused, ok := e.ensembleVoting([]contributor{
		c("a", 0.5, 0.4),
		c("b", 0.6, 0.4),
		c("c", 0.4, 0.4),
		c("d", -0.5, 0.9),
		c("e", 0.0, 0.9),
	}, nil)
	require.True(t, ok)
	// positive holds 3/5 = 0.6 >= majority threshold and wins despite
	// lighter total weight
	assert.Equal(t, "positive", fused.Label)
	assert.InDelta(t, 0.5, fused.Polarity, 1e-9) // mean of 0.5, 0.6, 0.4
	assert.InDelta(t, 1.2/3.0, fused.Confidence, 1e-9)
}

func TestEnsembleVotingFallsBackToWeights(t *testing.T) {
	e := testEngine(t)
	fused, ok := e.ensembleVoting([]contributor{
		c("a", 0.5, 0.2),
		c("b", -0.5, 0.9),
		c("c", 0.0, 0.1),
	}, nil)
	require.True(t, ok)
	// no label reaches 0.6 of the vote; negative carries the weight
	assert.Equal(t, "negative", fused.Label)
	assert.InDelta(t, 0.9/1.2, fused.Confidence, 1e-9)
}

func TestEnsembleVotingDeterministicTies(t *testing.T) {
	e := testEngine(t)
	for i := 0; i < 10; i++ {
		fused, ok := e.ensembleVoting([]contributor{
			c("a", 0.5, 0.5),
			c("b", -0.5, 0.5),
		}, nil)
		require.True(t, ok)
		assert.Equal(t, "positive", fused.Label)
	}
}

func TestHierarchicalRenormalizesOverPresentLevels(t *testing.T) {
	e := testEngine(t)
	// only analysis (0.5) and prediction (0.3) levels have data
	fused, ok := e.hierarchical([]contributor{
		c("sentiment_agent", 0.4, 0.8),
		c("trend_agent", 0.8, 0.6),
	}, nil)
	require.True(t, ok)
	want := (0.5*0.4 + 0.3*0.8) / 0.8
	assert.InDelta(t, want, fused.Polarity, 1e-9)
	wantConf := (0.5*0.8 + 0.3*0.6) / 0.8
	assert.InDelta(t, wantConf, fused.Confidence, 1e-9)
}

func TestHierarchicalUnknownAgentCountsAsAnalysis(t *testing.T) {
	e := testEngine(t)
	fused, ok := e.hierarchical([]contributor{c("custom_agent", 0.5, 0.7)}, nil)
	require.True(t, ok)
	assert.InDelta(t, 0.5, fused.Polarity, 1e-9)
	assert.InDelta(t, 0.7, fused.Confidence, 1e-9)
}

func TestAdaptiveNudgesTowardSuccessTarget(t *testing.T) {
	e := testEngine(t)
	contribs := []contributor{c("sentiment_agent", 0.5, 0.5)}

	// 5 successful agents: target 1.0, conf moves up by 0.1*(1-0.5)
	fused, ok := e.adaptive(contribs, nil, 5)
	require.True(t, ok)
	assert.InDelta(t, 0.55, fused.Confidence, 1e-9)

	// 1 successful agent: target 0.2, conf moves down
	fused, ok = e.adaptive(contribs, nil, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.5+0.1*(0.2-0.5), fused.Confidence, 1e-9)
}

func TestExtractContributorsMapsPayloads(t *testing.T) {
	results := []models.AgentResult{
		{
			AgentName: "sentiment_agent", Status: models.StatusCompleted,
			Payload: &models.AgentPayload{Kind: models.PayloadSentiment, Sentiment: &models.SentimentPayload{Polarity: 0.6, Label: "positive", Confidence: 0.8}},
		},
		{
			AgentName: "trend_agent", Status: models.StatusCompleted,
			Payload: &models.AgentPayload{Kind: models.PayloadPrediction, Prediction: &models.PredictionPayload{Direction: "down", Magnitude: 0.4, Confidence: 0.7}},
		},
		{
			AgentName: "news_validation_agent", Status: models.StatusCompleted,
			Payload: &models.AgentPayload{Kind: models.PayloadValidation, Validation: &models.ValidationPayload{Valid: true, Confidence: 0.9}},
		},
		{
			AgentName: "keyword_agent", Status: models.StatusCompleted,
			Payload: &models.AgentPayload{Kind: models.PayloadKeywords, Keywords: &models.KeywordPayload{Found: []string{"merger", "growth", "merger"}}},
		},
		{AgentName: "risk_agent", Status: models.StatusFailed},
	}

	contribs, keywords := extractContributors(results)

	require.Len(t, contribs, 3)
	assert.Equal(t, "sentiment_agent", contribs[0].name)
	assert.InDelta(t, -0.4, contribs[1].polarity, 1e-9) // down prediction
	assert.Equal(t, "negative", contribs[1].label)
	assert.Zero(t, contribs[2].polarity) // validation is polarity-neutral
	assert.Equal(t, []string{"merger", "growth"}, keywords)
}

func TestChooseFusionStrategyRules(t *testing.T) {
	cases := []struct {
		name string
		sel  Selection
		want models.FusionKind
	}{
		{"sparse", Selection{Successful: 2}, models.FusionWeightedAverage},
		{"rich", Selection{Successful: 6}, models.FusionHierarchical},
		{"earnings event", Selection{Successful: 3, EventType: "earnings_report"}, models.FusionBayesian},
		{"trading signal event", Selection{Successful: 4, EventType: "trading_signal"}, models.FusionBayesian},
		{"high confidence", Selection{Successful: 3, AggregateConfidence: 0.85}, models.FusionEnsembleVoting},
		{"default adaptive", Selection{Successful: 3, AggregateConfidence: 0.5}, models.FusionAdaptive},
		{"sparse beats event", Selection{Successful: 1, EventType: "earnings_report"}, models.FusionWeightedAverage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ChooseStrategy(tc.sel))
		})
	}
}
