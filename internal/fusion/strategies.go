package fusion

import (
	"math"

	"MarketMind/internal/domain/models"
)

// contributor is one completed agent's sentiment-bearing view. Keyword
// agents contribute keyword lists instead and never appear here.
type contributor struct {
	name       string
	polarity   float64
	label      string
	confidence float64
}

// hierarchical level mapping by agent name.
var agentLevels = map[string]string{
	"news_validation_agent": "filter",
	"relevance_agent":       "filter",
	"sentiment_agent":       "analysis",
	"keyword_agent":         "analysis",
	"entity_agent":          "analysis",
	"risk_agent":            "analysis",
	"impact_agent":          "prediction",
	"trend_agent":           "prediction",
}

// extractContributors pulls polarity/confidence pairs and the unioned
// keyword list out of the validated results. De-duplication keeps
// first-seen order so fusion stays deterministic.
func extractContributors(results []models.AgentResult) ([]contributor, []string) {
	contribs := make([]contributor, 0, len(results))
	var keywords []string
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Status != models.StatusCompleted || r.Payload == nil {
			continue
		}
		switch r.Payload.Kind {
		case models.PayloadSentiment:
			p := r.Payload.Sentiment
			contribs = append(contribs, contributor{
				name:       r.AgentName,
				polarity:   p.Polarity,
				label:      p.Label,
				confidence: p.Confidence,
			})
		case models.PayloadPrediction:
			p := r.Payload.Prediction
			contribs = append(contribs, contributor{
				name:       r.AgentName,
				polarity:   directionPolarity(p.Direction, p.Magnitude),
				label:      polarityLabel(directionPolarity(p.Direction, p.Magnitude)),
				confidence: p.Confidence,
			})
		case models.PayloadValidation:
			contribs = append(contribs, contributor{
				name:       r.AgentName,
				label:      "neutral",
				confidence: r.Payload.Validation.Confidence,
			})
		case models.PayloadEntities:
			contribs = append(contribs, contributor{
				name:       r.AgentName,
				label:      "neutral",
				confidence: r.Payload.Entities.Confidence,
			})
		case models.PayloadKeywords:
			for _, kw := range r.Payload.Keywords.Found {
				if !seen[kw] {
					seen[kw] = true
					keywords = append(keywords, kw)
				}
			}
		}
	}
	return contribs, keywords
}

func directionPolarity(direction string, magnitude float64) float64 {
	switch direction {
	case "up":
		return math.Abs(magnitude)
	case "down":
		return -math.Abs(magnitude)
	default:
		return 0
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

// weightedAverage fuses polarity as the confidence-weighted mean. Zero
// total confidence yields zero polarity, no division.
func (e *Engine) weightedAverage(contribs []contributor, keywords []string) (models.FusedSignal, bool) {
	if len(contribs) == 0 {
		return models.FusedSignal{}, false
	}
	var sumC, sumPC float64
	for _, c := range contribs {
		sumC += c.confidence
		sumPC += c.polarity * c.confidence
	}
	polarity := 0.0
	if sumC > 0 {
		polarity = sumPC / sumC
	}
	return models.FusedSignal{
		Polarity:   polarity,
		Label:      polarityLabel(polarity),
		Confidence: sumC / float64(len(contribs)),
		Keywords:   keywords,
	}, true
}

// bayesian blends a neutral prior with the confidence-weighted
// likelihood polarity.
func (e *Engine) bayesian(contribs []contributor, keywords []string) (models.FusedSignal, bool) {
	if len(contribs) == 0 {
		return models.FusedSignal{}, false
	}
	const prior = 0.0
	var sumC, sumPC float64
	for _, c := range contribs {
		sumC += c.confidence
		sumPC += c.polarity * c.confidence
	}
	likelihood := 0.0
	if sumC > 0 {
		likelihood = sumPC / sumC
	}
	posterior := e.cfg.PriorWeight*prior + e.cfg.LikelihoodWeight*likelihood
	return models.FusedSignal{
		Polarity:   posterior,
		Label:      polarityLabel(posterior),
		Confidence: sumC / float64(len(contribs)),
		Keywords:   keywords,
	}, true
}

// ensembleVoting lets each agent cast one vote for its label, weighted
// by confidence. An unweighted majority at or above the threshold wins
// outright; otherwise the heaviest weighted label wins.
func (e *Engine) ensembleVoting(contribs []contributor, keywords []string) (models.FusedSignal, bool) {
	if len(contribs) == 0 {
		return models.FusedSignal{}, false
	}
	counts := make(map[string]int, 3)
	weights := make(map[string]float64, 3)
	totalWeight := 0.0
	for _, c := range contribs {
		label := c.label
		if label == "" {
			label = "neutral"
		}
		counts[label]++
		weights[label] += c.confidence
		totalWeight += c.confidence
	}

	// fixed label order keeps ties deterministic
	labels := []string{"positive", "negative", "neutral"}

	winner := ""
	for _, l := range labels {
		if winner == "" || counts[l] > counts[winner] {
			winner = l
		}
	}
	share := float64(counts[winner]) / float64(len(contribs))
	if share < e.cfg.MajorityThreshold {
		// no outright majority: heaviest weighted label wins
		winner = ""
		for _, l := range labels {
			if winner == "" || weights[l] > weights[winner] {
				winner = l
			}
		}
	}

	confidence := 0.0
	if totalWeight > 0 {
		confidence = weights[winner] / totalWeight
	}
	return models.FusedSignal{
		Polarity:   meanPolarityFor(contribs, winner),
		Label:      winner,
		Confidence: confidence,
		Keywords:   keywords,
	}, true
}

func meanPolarityFor(contribs []contributor, label string) float64 {
	sum, n := 0.0, 0
	for _, c := range contribs {
		l := c.label
		if l == "" {
			l = "neutral"
		}
		if l == label {
			sum += c.polarity
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// hierarchical buckets contributors into filter/analysis/prediction
// levels, simple-averages each level, and combines level results with
// fixed weights renormalized over levels that had data.
func (e *Engine) hierarchical(contribs []contributor, keywords []string) (models.FusedSignal, bool) {
	if len(contribs) == 0 {
		return models.FusedSignal{}, false
	}
	type levelAgg struct {
		sumP, sumC float64
		n          int
	}
	byLevel := map[string]*levelAgg{}
	for _, c := range contribs {
		level, ok := agentLevels[c.name]
		if !ok {
			level = "analysis"
		}
		agg := byLevel[level]
		if agg == nil {
			agg = &levelAgg{}
			byLevel[level] = agg
		}
		agg.sumP += c.polarity
		agg.sumC += c.confidence
		agg.n++
	}

	levelWeights := map[string]float64{
		"filter":     e.cfg.FilterLevelWeight,
		"analysis":   e.cfg.AnalysisLevelWeight,
		"prediction": e.cfg.PredictionLevelWeight,
	}
	// fixed level order; float addition is not associative, so ranging
	// over the map would make the fused polarity run-dependent
	var polarity, confidence, weightSum float64
	for _, level := range []string{"filter", "analysis", "prediction"} {
		agg := byLevel[level]
		if agg == nil || agg.n == 0 {
			continue
		}
		w := levelWeights[level]
		polarity += w * (agg.sumP / float64(agg.n))
		confidence += w * (agg.sumC / float64(agg.n))
		weightSum += w
	}
	if weightSum > 0 {
		polarity /= weightSum
		confidence /= weightSum
	}
	return models.FusedSignal{
		Polarity:   polarity,
		Label:      polarityLabel(polarity),
		Confidence: confidence,
		Keywords:   keywords,
	}, true
}

// adaptive is weighted average with a confidence nudge toward the
// successful-agent-count target at the configured adaptation rate.
func (e *Engine) adaptive(contribs []contributor, keywords []string, successful int) (models.FusedSignal, bool) {
	fused, ok := e.weightedAverage(contribs, keywords)
	if !ok {
		return fused, false
	}
	target := math.Min(float64(successful)/5.0, 1.0)
	fused.Confidence = clamp01(fused.Confidence + e.cfg.AdaptationRate*(target-fused.Confidence))
	return fused, true
}
