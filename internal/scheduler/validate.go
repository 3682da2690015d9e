package scheduler

import (
	"fmt"

	"MarketMind/internal/domain/models"
)

// ValidateResults normalizes raw agent results into the list the fusion
// engine consumes. Results without a name or status are dropped, unknown
// statuses coerce to Failed, and a Completed result whose raw payload
// cannot be mapped to a typed shape is demoted to Failed.
func ValidateResults(results []models.AgentResult) []models.AgentResult {
	out := make([]models.AgentResult, 0, len(results))
	for _, r := range results {
		if r.AgentName == "" || r.Status == "" {
			continue
		}
		if !models.IsValidAgentStatus(r.Status) {
			if r.Err == "" {
				r.Err = fmt.Sprintf("unrecognized status %q", string(r.Status))
			}
			r.Status = models.StatusFailed
		}
		if r.Status == models.StatusCompleted {
			payload, err := MapPayload(r.Raw)
			if err != nil {
				r.Status = models.StatusFailed
				r.Err = fmt.Sprintf("payload validation: %v", err)
				r.Payload = nil
			} else {
				r.Payload = payload
			}
		}
		out = append(out, r)
	}
	return out
}

// MapPayload converts an executor's raw map into the typed payload
// union. This is the boundary turning duck-typed agent output into an
// explicit contract.
func MapPayload(raw models.RawPayload) (*models.AgentPayload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	switch {
	case hasKey(raw, "polarity"):
		p, ok := toFloat(raw["polarity"])
		if !ok {
			return nil, fmt.Errorf("polarity is not numeric")
		}
		conf, _ := toFloat(raw["confidence"])
		label, _ := raw["label"].(string)
		if !knownLabel(label) {
			// out-of-vocabulary labels would be invisible to voting
			label = polarityLabel(p)
		}
		return &models.AgentPayload{
			Kind:      models.PayloadSentiment,
			Sentiment: &models.SentimentPayload{Polarity: p, Label: label, Confidence: conf},
		}, nil
	case hasKey(raw, "found_keywords"):
		found, ok := toStrings(raw["found_keywords"])
		if !ok {
			return nil, fmt.Errorf("found_keywords is not a string list")
		}
		return &models.AgentPayload{
			Kind:     models.PayloadKeywords,
			Keywords: &models.KeywordPayload{Found: found, Count: len(found)},
		}, nil
	case hasKey(raw, "valid"):
		valid, ok := raw["valid"].(bool)
		if !ok {
			return nil, fmt.Errorf("valid is not a bool")
		}
		conf, _ := toFloat(raw["confidence"])
		issues, _ := toStrings(raw["issues"])
		return &models.AgentPayload{
			Kind:       models.PayloadValidation,
			Validation: &models.ValidationPayload{Valid: valid, Issues: issues, Confidence: conf},
		}, nil
	case hasKey(raw, "symbols") || hasKey(raw, "organizations"):
		symbols, _ := toStrings(raw["symbols"])
		orgs, _ := toStrings(raw["organizations"])
		conf, _ := toFloat(raw["confidence"])
		return &models.AgentPayload{
			Kind:     models.PayloadEntities,
			Entities: &models.EntityPayload{Symbols: symbols, Organizations: orgs, Confidence: conf},
		}, nil
	case hasKey(raw, "direction"):
		dir, ok := raw["direction"].(string)
		if !ok {
			return nil, fmt.Errorf("direction is not a string")
		}
		mag, _ := toFloat(raw["magnitude"])
		conf, _ := toFloat(raw["confidence"])
		return &models.AgentPayload{
			Kind:       models.PayloadPrediction,
			Prediction: &models.PredictionPayload{Direction: dir, Magnitude: mag, Confidence: conf},
		}, nil
	default:
		return nil, fmt.Errorf("unrecognized payload shape")
	}
}

func knownLabel(label string) bool {
	switch label {
	case "positive", "negative", "neutral":
		return true
	default:
		return false
	}
}

func polarityLabel(p float64) string {
	switch {
	case p > 0.1:
		return "positive"
	case p < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}

func hasKey(raw models.RawPayload, key string) bool {
	_, ok := raw[key]
	return ok
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func toStrings(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}
