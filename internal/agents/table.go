package agents

import (
	"sort"
	"time"

	"MarketMind/internal/domain/models"
	domsvc "MarketMind/internal/domain/service"
)

// StaticTable is the in-memory capability table, seeded at startup and
// read-only afterwards.
type StaticTable struct {
	specs map[string]models.AgentSpec
}

// NewStaticTable builds a table from the given specs. Later specs with
// the same name override earlier ones, so config entries can override
// the compiled-in defaults.
func NewStaticTable(specs ...models.AgentSpec) *StaticTable {
	m := make(map[string]models.AgentSpec, len(specs))
	for _, sp := range specs {
		if sp.Name == "" {
			continue
		}
		m[sp.Name] = sp
	}
	return &StaticTable{specs: m}
}

// ListAgents returns registered agent names in stable order.
func (t *StaticTable) ListAgents() []string {
	names := make([]string, 0, len(t.specs))
	for name := range t.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSpec looks up one agent's capability metadata.
func (t *StaticTable) GetSpec(name string) (models.AgentSpec, bool) {
	sp, ok := t.specs[name]
	return sp, ok
}

var _ domsvc.CapabilityTable = (*StaticTable)(nil)

// DefaultSpecs returns the compiled-in capability table.
func DefaultSpecs() []models.AgentSpec {
	return []models.AgentSpec{
		{
			Name:            "news_validation_agent",
			Category:        "filter",
			Priority:        1,
			TypicalDuration: 50 * time.Millisecond,
			Resources:       models.ResourceFootprint{MemoryMB: 64, CPUPercent: 5},
		},
		{
			Name:            "relevance_agent",
			Category:        "filter",
			Priority:        2,
			TypicalDuration: 80 * time.Millisecond,
			Dependencies:    []string{"news_validation_agent"},
			Resources:       models.ResourceFootprint{MemoryMB: 64, CPUPercent: 5},
		},
		{
			Name:            "sentiment_agent",
			Category:        "analysis",
			Priority:        3,
			TypicalDuration: 200 * time.Millisecond,
			Dependencies:    []string{"news_validation_agent"},
			Resources:       models.ResourceFootprint{MemoryMB: 128, CPUPercent: 10},
		},
		{
			Name:            "keyword_agent",
			Category:        "analysis",
			Priority:        3,
			TypicalDuration: 120 * time.Millisecond,
			Dependencies:    []string{"news_validation_agent"},
			Resources:       models.ResourceFootprint{MemoryMB: 96, CPUPercent: 8},
		},
		{
			Name:            "entity_agent",
			Category:        "analysis",
			Priority:        4,
			TypicalDuration: 150 * time.Millisecond,
			Dependencies:    []string{"news_validation_agent"},
			Resources:       models.ResourceFootprint{MemoryMB: 192, CPUPercent: 12},
		},
		{
			Name:            "risk_agent",
			Category:        "analysis",
			Priority:        4,
			TypicalDuration: 180 * time.Millisecond,
			Dependencies:    []string{"sentiment_agent"},
			Resources:       models.ResourceFootprint{MemoryMB: 128, CPUPercent: 10},
		},
		{
			Name:            "impact_agent",
			Category:        "prediction",
			Priority:        5,
			TypicalDuration: 300 * time.Millisecond,
			Dependencies:    []string{"sentiment_agent", "keyword_agent"},
			Resources:       models.ResourceFootprint{MemoryMB: 640, CPUPercent: 25},
		},
		{
			Name:            "trend_agent",
			Category:        "prediction",
			Priority:        5,
			TypicalDuration: 250 * time.Millisecond,
			Dependencies:    []string{"sentiment_agent"},
			Resources:       models.ResourceFootprint{MemoryMB: 256, CPUPercent: 15},
		},
	}
}
