package scheduler

import (
	"time"

	"MarketMind/internal/domain/models"
)

// RawAggregation is the scheduler-side roll-up of validated results,
// computed independently of fusion.
type RawAggregation struct {
	SuccessfulAgents    []string
	FailedAgents        map[string]string // name -> reason
	CombinedResults     map[string]*models.AgentPayload
	ConfidenceScores    map[string]float64
	AggregateConfidence float64 // mean of available confidences, 0 if none
}

// Aggregate rolls validated results into the raw aggregation bundle.
func Aggregate(results []models.AgentResult) RawAggregation {
	agg := RawAggregation{
		FailedAgents:     make(map[string]string),
		CombinedResults:  make(map[string]*models.AgentPayload),
		ConfidenceScores: make(map[string]float64),
	}
	sum := 0.0
	for _, r := range results {
		if r.Status != models.StatusCompleted {
			reason := r.Err
			if reason == "" {
				reason = string(r.Status)
			}
			agg.FailedAgents[r.AgentName] = reason
			continue
		}
		agg.SuccessfulAgents = append(agg.SuccessfulAgents, r.AgentName)
		agg.CombinedResults[r.AgentName] = r.Payload
		if carriesConfidence(r.Payload) {
			c := r.Payload.Confidence()
			agg.ConfidenceScores[r.AgentName] = c
			sum += c
		}
	}
	if n := len(agg.ConfidenceScores); n > 0 {
		agg.AggregateConfidence = sum / float64(n)
	}
	return agg
}

func carriesConfidence(p *models.AgentPayload) bool {
	return p != nil && p.Kind != models.PayloadKeywords
}

// Performance computes the per-pass execution report. Timing stats use
// agents that actually ran; blocked agents have zero execution time and
// would skew the minimum.
func Performance(results []models.AgentResult, total time.Duration) models.PerformanceReport {
	report := models.PerformanceReport{TotalExecutionTime: total}
	if len(results) == 0 {
		report.Rating = "poor"
		return report
	}

	completed := 0
	ran := 0
	var sum, minT, maxT time.Duration
	for _, r := range results {
		if r.Status == models.StatusCompleted {
			completed++
		}
		if r.Status == models.StatusBlocked {
			continue
		}
		ran++
		sum += r.ExecutionTime
		if minT == 0 || r.ExecutionTime < minT {
			minT = r.ExecutionTime
		}
		if r.ExecutionTime > maxT {
			maxT = r.ExecutionTime
		}
	}
	if ran > 0 {
		report.AverageExecutionTime = sum / time.Duration(ran)
	}
	report.MinExecutionTime = minT
	report.MaxExecutionTime = maxT
	report.SuccessRate = float64(completed) / float64(len(results))
	report.Rating = rate(report.SuccessRate, report.AverageExecutionTime)
	return report
}

// rate derives the four-level qualitative rating from success rate and
// average agent speed.
func rate(successRate float64, avg time.Duration) string {
	switch {
	case successRate >= 0.9 && avg <= time.Second:
		return "excellent"
	case successRate >= 0.7 && avg <= 3*time.Second:
		return "good"
	case successRate >= 0.5:
		return "fair"
	default:
		return "poor"
	}
}
