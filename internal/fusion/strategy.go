package fusion

import "MarketMind/internal/domain/models"

// Selection is the input to fusion strategy choice.
type Selection struct {
	Successful          int
	EventType           string
	AggregateConfidence float64
}

// StrategyRule maps a condition over the pass outcome to a fusion
// strategy. Rules are evaluated top to bottom; the first match wins.
type StrategyRule struct {
	Name  string
	Match func(sel Selection) bool
	Kind  models.FusionKind
}

// Rules is the ordered fusion strategy rule table.
func Rules() []StrategyRule {
	return []StrategyRule{
		{
			Name:  "sparse_results",
			Match: func(sel Selection) bool { return sel.Successful <= 2 },
			Kind:  models.FusionWeightedAverage,
		},
		{
			Name:  "rich_results",
			Match: func(sel Selection) bool { return sel.Successful >= 5 },
			Kind:  models.FusionHierarchical,
		},
		{
			Name: "structured_event",
			Match: func(sel Selection) bool {
				return sel.EventType == "trading_signal" || sel.EventType == "earnings_report"
			},
			Kind: models.FusionBayesian,
		},
		{
			Name:  "high_confidence",
			Match: func(sel Selection) bool { return sel.AggregateConfidence > 0.8 },
			Kind:  models.FusionEnsembleVoting,
		},
		{
			Name:  "default",
			Match: func(sel Selection) bool { return true },
			Kind:  models.FusionAdaptive,
		},
	}
}

// ChooseStrategy evaluates the rule table for one pass.
func ChooseStrategy(sel Selection) models.FusionKind {
	for _, rule := range Rules() {
		if rule.Match(sel) {
			return rule.Kind
		}
	}
	return models.FusionWeightedAverage
}
