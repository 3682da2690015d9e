package classify

import (
	"context"
	"fmt"
	"math"
	"strings"

	"MarketMind/internal/domain/models"
	domsvc "MarketMind/internal/domain/service"
)

// eventRule maps headline/body markers to an event type and the agents
// relevant to it. Rules are checked top to bottom; the first hit wins.
type eventRule struct {
	eventType string
	markers   []string
	agents    []string
}

var eventRules = []eventRule{
	{
		eventType: "earnings_report",
		markers:   []string{"earnings", "quarterly results", "eps", "revenue beat", "revenue miss", "guidance"},
		agents:    []string{"sentiment_agent", "keyword_agent", "entity_agent", "impact_agent", "trend_agent"},
	},
	{
		eventType: "regulatory_change",
		markers:   []string{"sec", "regulator", "regulation", "antitrust", "probe", "investigation", "sanction"},
		agents:    []string{"sentiment_agent", "keyword_agent", "risk_agent", "impact_agent"},
	},
	{
		eventType: "macro_economic",
		markers:   []string{"fed", "inflation", "rates", "gdp", "unemployment", "tariff", "central bank"},
		agents:    []string{"sentiment_agent", "keyword_agent", "risk_agent", "trend_agent"},
	},
	{
		eventType: "product_launch",
		markers:   []string{"launch", "unveil", "announce", "release", "debut"},
		agents:    []string{"sentiment_agent", "keyword_agent", "entity_agent", "impact_agent"},
	},
	{
		eventType: "trading_signal",
		markers:   []string{"upgrade", "downgrade", "price target", "rating", "initiated coverage"},
		agents:    []string{"sentiment_agent", "keyword_agent", "impact_agent", "trend_agent"},
	},
}

var generalAgents = []string{"relevance_agent", "sentiment_agent", "keyword_agent"}

// RuleClassifier is the local, rule-based classification stage. The wire
// format of an external classifier is out of scope; this implements the
// same contract in process.
type RuleClassifier struct{}

func New() *RuleClassifier { return &RuleClassifier{} }

// Classify decides the event type and the relevant agents for one item.
func (c *RuleClassifier) Classify(_ context.Context, item *models.NewsItem) (models.Classification, error) {
	if item == nil {
		return models.Classification{}, fmt.Errorf("nil news item")
	}
	text := strings.ToLower(item.Headline + " " + item.Body)

	for _, rule := range eventRules {
		hits := 0
		for _, marker := range rule.markers {
			if strings.Contains(text, marker) {
				hits++
			}
		}
		if hits > 0 {
			return models.Classification{
				EventType:      rule.eventType,
				RequiredAgents: rule.agents,
				Confidence:     math.Min(0.5+0.2*float64(hits), 0.95),
			}, nil
		}
	}
	return models.Classification{
		EventType:      "general_news",
		RequiredAgents: generalAgents,
		Confidence:     0.4,
	}, nil
}

var _ domsvc.Classifier = (*RuleClassifier)(nil)
