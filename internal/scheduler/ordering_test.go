package scheduler

import (
	"testing"

	"MarketMind/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func names(specs []models.AgentSpec) []string {
	out := make([]string, len(specs))
	for i, sp := range specs {
		out[i] = sp.Name
	}
	return out
}

func TestOrderAgentsByPriority(t *testing.T) {
	got := orderAgents([]models.AgentSpec{
		spec("trend_agent", 5),
		spec("sentiment_agent", 3),
		spec("news_validation_agent", 1),
	})
	assert.Equal(t, []string{"news_validation_agent", "sentiment_agent", "trend_agent"}, names(got))
}

func TestOrderAgentsPlacesDependenciesFirst(t *testing.T) {
	got := orderAgents([]models.AgentSpec{
		spec("impact_agent", 5, "sentiment_agent", "keyword_agent"),
		spec("keyword_agent", 3),
		spec("sentiment_agent", 3),
	})
	assert.Equal(t, []string{"keyword_agent", "sentiment_agent", "impact_agent"}, names(got))
}

func TestOrderAgentsStableForEqualPriority(t *testing.T) {
	got := orderAgents([]models.AgentSpec{
		spec("keyword_agent", 3),
		spec("sentiment_agent", 3),
	})
	assert.Equal(t, []string{"keyword_agent", "sentiment_agent"}, names(got))
}

func TestOrderAgentsFallsBackOnMissingDependency(t *testing.T) {
	// risk_agent depends on an agent that selection filtered out; the
	// order degrades to plain priority rather than dropping the agent
	got := orderAgents([]models.AgentSpec{
		spec("risk_agent", 4, "sentiment_agent"),
		spec("news_validation_agent", 1),
	})
	assert.Equal(t, []string{"news_validation_agent", "risk_agent"}, names(got))
}

func TestOrderAgentsFallsBackOnCycle(t *testing.T) {
	got := orderAgents([]models.AgentSpec{
		spec("a", 2, "b"),
		spec("b", 1, "a"),
	})
	// unresolvable; priority order preserved
	assert.Equal(t, []string{"b", "a"}, names(got))
}
