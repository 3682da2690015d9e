package fusion

import (
	"fmt"
	"math"
	"time"

	"MarketMind/internal/domain/models"
	domrepo "MarketMind/internal/domain/repository"
	"MarketMind/internal/scheduler"
	applogger "MarketMind/pkg/logger"
)

// Engine merges validated per-agent results into one scored trading
// signal with a risk assessment. All arithmetic is pure: identical
// inputs produce identical outcomes.
type Engine struct {
	cfg     Config
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

// Outcome is everything fusion derives from one scheduler report.
type Outcome struct {
	Fused        models.FusedSignal
	Signals      []models.TradingSignal
	Confidence   models.ConfidenceScores
	Risk         models.RiskAssessment
	Intelligence models.FinalIntelligence
}

// NewEngine creates a fusion engine. Unset config fields take defaults.
func NewEngine(cfg Config, metrics domrepo.Metrics, logger *applogger.Logger) *Engine {
	return &Engine{cfg: cfg.fill(), metrics: metrics, logger: logger}
}

// Fuse runs one fusion pass over the scheduler's report. Degraded
// sub-results never abort the pass; only final-intelligence assembly
// can fail it.
func (e *Engine) Fuse(report *scheduler.Report, cls models.Classification) (*Outcome, error) {
	start := time.Now()

	successful := len(report.Raw.SuccessfulAgents)
	kind := ChooseStrategy(Selection{
		Successful:          successful,
		EventType:           cls.EventType,
		AggregateConfidence: report.Raw.AggregateConfidence,
	})
	contribs, keywords := extractContributors(report.Results)

	fused, ok := e.fuse(kind, contribs, keywords, successful)
	if !ok {
		e.logger.Warn("fusion degraded to empty result",
			applogger.String("strategy", string(kind)),
			applogger.Int("contributors", len(contribs)))
		e.metrics.RecordError("fusion_degraded")
		fused = models.FusedSignal{Label: "neutral"}
	}
	fused.Strategy = kind
	fused.Contributors = len(contribs)

	signals := e.generateSignals(fused, cls)
	confidence := e.scoreConfidence(report, signals)
	risk := e.assessRisk(fused, signals)

	intelligence, err := e.buildIntelligence(fused, signals, risk, confidence)
	if err != nil {
		return nil, models.NewPassFailure("intelligence", err)
	}

	e.metrics.RecordLatency("fusion_pass", time.Since(start).Seconds())
	return &Outcome{
		Fused:        fused,
		Signals:      signals,
		Confidence:   confidence,
		Risk:         risk,
		Intelligence: intelligence,
	}, nil
}

func (e *Engine) fuse(kind models.FusionKind, contribs []contributor, keywords []string, successful int) (models.FusedSignal, bool) {
	switch kind {
	case models.FusionBayesian:
		return e.bayesian(contribs, keywords)
	case models.FusionEnsembleVoting:
		return e.ensembleVoting(contribs, keywords)
	case models.FusionHierarchical:
		return e.hierarchical(contribs, keywords)
	case models.FusionAdaptive:
		return e.adaptive(contribs, keywords, successful)
	default:
		return e.weightedAverage(contribs, keywords)
	}
}

// scoreConfidence combines agent, execution, and signal confidence into
// the overall pass confidence.
func (e *Engine) scoreConfidence(report *scheduler.Report, signals []models.TradingSignal) models.ConfidenceScores {
	scores := models.ConfidenceScores{Agent: report.Raw.AggregateConfidence}
	if report.Attempted > 0 {
		scores.Execution = float64(len(report.Raw.SuccessfulAgents)) / float64(report.Attempted)
	}
	if len(signals) > 0 {
		sum := 0.0
		for _, s := range signals {
			sum += s.Confidence
		}
		scores.Signal = sum / float64(len(signals))
	}
	scores.Overall = clamp01(0.4*scores.Agent + 0.3*scores.Execution + 0.3*scores.Signal)
	return scores
}

// assessRisk scores the pass risk from the fused confidence and the
// distinct risk factor types carried by the generated signals.
func (e *Engine) assessRisk(fused models.FusedSignal, signals []models.TradingSignal) models.RiskAssessment {
	factors := distinctRiskFactors(signals)
	score := math.Min((1-fused.Confidence)+0.1*float64(len(factors)), 1.0)

	assessment := models.RiskAssessment{
		Score:            clamp01(score),
		Factors:          factors,
		ExceedsThreshold: score > e.cfg.RiskThreshold,
	}
	switch {
	case score < 0.3:
		assessment.Level = "low"
	case score < 0.6:
		assessment.Level = "medium"
	default:
		assessment.Level = "high"
	}
	if assessment.ExceedsThreshold {
		assessment.Recommendation = "caution"
	} else {
		assessment.Recommendation = "proceed"
	}
	return assessment
}

func distinctRiskFactors(signals []models.TradingSignal) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 4)
	for _, s := range signals {
		for _, f := range s.RiskFactors {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func validScore(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("non-finite score %v", v)
	}
	return nil
}
