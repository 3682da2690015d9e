package fusion

import (
	"fmt"
	"math"

	"MarketMind/internal/domain/models"
)

// generateSignals derives the primary trading signal and, on strong
// conviction, a second one.
func (e *Engine) generateSignals(fused models.FusedSignal, cls models.Classification) []models.TradingSignal {
	keywordActivity := math.Min(float64(len(fused.Keywords))/5.0, 1.0)
	strength := fused.Polarity*e.cfg.SentimentWeight*fused.Confidence + keywordActivity*e.cfg.KeywordWeight

	signal := models.SignalHold
	if fused.Confidence >= e.cfg.MinConfidence {
		switch {
		case strength > e.cfg.BuyThreshold:
			signal = models.SignalBuy
		case strength < e.cfg.SellThreshold:
			signal = models.SignalSell
		}
	}

	riskFactors := e.riskFactors(fused, cls)
	opportunities := e.opportunities(fused, cls)

	signals := []models.TradingSignal{{
		Signal:         signal,
		Confidence:     fused.Confidence,
		Recommendation: recommendation(fused.Confidence, strength),
		RiskFactors:    riskFactors,
		Opportunities:  opportunities,
	}}

	if fused.Confidence > 0.8 && math.Abs(fused.Polarity) > 0.5 {
		conviction := models.SignalBuy
		if fused.Polarity < 0 {
			conviction = models.SignalSell
		}
		signals = append(signals, models.TradingSignal{
			Signal:         conviction,
			Confidence:     fused.Confidence,
			Recommendation: "strong_conviction",
			RiskFactors:    riskFactors,
			Opportunities:  opportunities,
		})
	}
	return signals
}

// recommendation compounds the confidence tier with the conviction tier
// on absolute signal strength.
func recommendation(confidence, strength float64) string {
	var confTier string
	switch {
	case confidence >= 0.8:
		confTier = "strong"
	case confidence >= 0.6:
		confTier = "moderate"
	default:
		confTier = "weak"
	}
	var convTier string
	switch abs := math.Abs(strength); {
	case abs >= 0.6:
		convTier = "high"
	case abs >= 0.3:
		convTier = "medium"
	default:
		convTier = "low"
	}
	return fmt.Sprintf("%s_confidence_%s_conviction", confTier, convTier)
}

func (e *Engine) riskFactors(fused models.FusedSignal, cls models.Classification) []string {
	var factors []string
	if fused.Confidence < 0.5 {
		factors = append(factors, "low_confidence")
	}
	if cls.EventType == "regulatory_change" || cls.EventType == "macro_economic" {
		factors = append(factors, "high_volatility_risk")
	}
	if fused.Contributors < 2 {
		factors = append(factors, "limited_data_sources")
	}
	return factors
}

func (e *Engine) opportunities(fused models.FusedSignal, cls models.Classification) []string {
	var opps []string
	if fused.Confidence > 0.8 {
		opps = append(opps, "high_confidence_signal")
	}
	if len(fused.Keywords) >= 5 {
		opps = append(opps, "strong_keyword_activity")
	}
	if cls.EventType == "earnings_report" || cls.EventType == "product_launch" {
		opps = append(opps, "event_driven_opportunity")
	}
	return opps
}
