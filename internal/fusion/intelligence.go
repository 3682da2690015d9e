package fusion

import (
	"fmt"
	"math"
	"strings"

	"MarketMind/internal/domain/models"
)

const maxInsights = 5

// buildIntelligence assembles the one-sentence summary and the insight
// list. This is the only fusion stage allowed to fail the pass.
func (e *Engine) buildIntelligence(fused models.FusedSignal, signals []models.TradingSignal, risk models.RiskAssessment, confidence models.ConfidenceScores) (models.FinalIntelligence, error) {
	for _, v := range []float64{fused.Polarity, fused.Confidence, risk.Score, confidence.Overall} {
		if err := validScore(v); err != nil {
			return models.FinalIntelligence{}, fmt.Errorf("intelligence assembly: %w", err)
		}
	}

	parts := []string{
		fmt.Sprintf("sentiment is %s %s", sentimentStrengthTier(fused.Polarity), sentimentLabel(fused.Label)),
		fmt.Sprintf("keyword activity is %s", keywordTier(len(fused.Keywords))),
	}
	if primary := primarySignal(signals); primary != nil && primary.Signal != models.SignalHold {
		parts = append(parts, fmt.Sprintf("primary signal is %s", strings.ToUpper(string(primary.Signal))))
	}
	parts = append(parts,
		fmt.Sprintf("risk is %s", risk.Level),
		fmt.Sprintf("overall confidence is %s", confidenceTier(confidence.Overall)),
	)
	summary := "Market intelligence: " + strings.Join(parts, "; ") + "."

	return models.FinalIntelligence{
		Summary:  summary,
		Insights: e.insights(fused, signals, risk),
	}, nil
}

// insights derives up to five actionable strings in fixed priority
// order: signal, risk, sentiment, keywords.
func (e *Engine) insights(fused models.FusedSignal, signals []models.TradingSignal, risk models.RiskAssessment) []string {
	var out []string

	for _, s := range signals {
		if s.Signal == models.SignalHold {
			continue
		}
		out = append(out, fmt.Sprintf("%s signal at %.0f%% confidence (%s)",
			s.Signal, s.Confidence*100, s.Recommendation))
	}
	if risk.ExceedsThreshold {
		out = append(out, fmt.Sprintf("risk score %.2f exceeds threshold; caution advised", risk.Score))
	} else if risk.Level == "high" {
		out = append(out, "risk level high despite sub-threshold score")
	}
	if fused.Label != "neutral" && fused.Label != "" {
		out = append(out, fmt.Sprintf("consensus sentiment %s with polarity %.2f across %d agents",
			fused.Label, fused.Polarity, fused.Contributors))
	}
	if len(fused.Keywords) > 0 {
		out = append(out, fmt.Sprintf("%d market-moving keywords detected: %s",
			len(fused.Keywords), strings.Join(head(fused.Keywords, 3), ", ")))
	}

	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	return out
}

func primarySignal(signals []models.TradingSignal) *models.TradingSignal {
	if len(signals) == 0 {
		return nil
	}
	return &signals[0]
}

func sentimentStrengthTier(polarity float64) string {
	switch abs := math.Abs(polarity); {
	case abs >= 0.5:
		return "strongly"
	case abs >= 0.2:
		return "moderately"
	default:
		return "mildly"
	}
}

func sentimentLabel(label string) string {
	if label == "" {
		return "neutral"
	}
	return label
}

func keywordTier(count int) string {
	switch {
	case count >= 5:
		return "high"
	case count >= 2:
		return "moderate"
	default:
		return "low"
	}
}

func confidenceTier(overall float64) string {
	switch {
	case overall >= 0.8:
		return "high"
	case overall >= 0.6:
		return "moderate"
	default:
		return "low"
	}
}

func head(xs []string, n int) []string {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}
