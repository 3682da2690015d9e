package scheduler

import (
	"testing"

	"MarketMind/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heavySpec(name string, priority, memoryMB int) models.AgentSpec {
	sp := spec(name, priority)
	sp.Resources.MemoryMB = memoryMB
	return sp
}

func TestChooseStrategySmallSet(t *testing.T) {
	got, err := ChooseStrategy([]models.AgentSpec{
		spec("news_validation_agent", 1),
		spec("sentiment_agent", 3),
	}, DefaultRules(3))
	require.NoError(t, err)
	assert.Equal(t, models.ExecSequential, got.Kind)
	assert.Equal(t, 1, got.MaxConcurrent)
	assert.Equal(t, models.ErrStopOnError, got.ErrorHandling)
}

func TestChooseStrategyCriticalPriority(t *testing.T) {
	got, err := ChooseStrategy([]models.AgentSpec{
		spec("news_validation_agent", 1),
		spec("sentiment_agent", 3),
		spec("keyword_agent", 3),
	}, DefaultRules(3))
	require.NoError(t, err)
	assert.Equal(t, models.ExecPriorityBased, got.Kind)
}

func TestChooseStrategyHeavyMemory(t *testing.T) {
	got, err := ChooseStrategy([]models.AgentSpec{
		spec("sentiment_agent", 3),
		spec("keyword_agent", 3),
		spec("entity_agent", 4),
		spec("risk_agent", 4),
		heavySpec("impact_agent", 5, 640),
	}, DefaultRules(3))
	require.NoError(t, err)
	assert.Equal(t, models.ExecAdaptive, got.Kind)
}

func TestChooseStrategyDefaultParallel(t *testing.T) {
	got, err := ChooseStrategy([]models.AgentSpec{
		spec("sentiment_agent", 3),
		spec("keyword_agent", 3),
		spec("entity_agent", 4),
	}, DefaultRules(4))
	require.NoError(t, err)
	assert.Equal(t, models.ExecParallel, got.Kind)
	assert.Equal(t, 4, got.MaxConcurrent)
}

func TestChooseStrategyRuleOrderWins(t *testing.T) {
	// two agents, one heavy: small_set precedes heavy_memory
	got, err := ChooseStrategy([]models.AgentSpec{
		spec("news_validation_agent", 1),
		heavySpec("impact_agent", 5, 640),
	}, DefaultRules(3))
	require.NoError(t, err)
	assert.Equal(t, models.ExecSequential, got.Kind)
}

func TestChooseStrategyEmptyTable(t *testing.T) {
	_, err := ChooseStrategy([]models.AgentSpec{spec("a", 1)}, nil)
	assert.Error(t, err)
}
