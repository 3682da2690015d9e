package models

import (
	"fmt"
	"time"
)

// NewsItem is one unit of upstream work; one pass runs per item.
type NewsItem struct {
	ID          string
	Symbol      string
	Headline    string
	Body        string
	Source      string
	PublishedAt time.Time
}

// Classification is the upstream stage's verdict on which agents matter
// for an item. The wire format is the classifier's concern; this is the
// in-process shape.
type Classification struct {
	EventType      string
	RequiredAgents []string
	Confidence     float64
}

// SignalType is the trading action a pass recommends.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalHold SignalType = "hold"
)

// TradingSignal is one actionable recommendation. A pass emits a primary
// signal and, on strong conviction, a second one.
type TradingSignal struct {
	Signal         SignalType
	Confidence     float64
	Recommendation string
	RiskFactors    []string
	Opportunities  []string
}

// FusedSignal is the consensus sentiment/keyword view across agents.
type FusedSignal struct {
	Polarity     float64
	Label        string // "positive", "negative", "neutral"
	Confidence   float64
	Keywords     []string
	Strategy     FusionKind
	Contributors int
}

// ConfidenceScores decomposes the overall pass confidence.
type ConfidenceScores struct {
	Agent     float64
	Execution float64
	Signal    float64
	Overall   float64 // clamped to [0,1]
}

// RiskAssessment scores how risky acting on the pass output would be.
type RiskAssessment struct {
	Score            float64 // clamped to [0,1]
	Level            string  // "low", "medium", "high"
	Factors          []string
	ExceedsThreshold bool
	Recommendation   string // "proceed" or "caution"
}

// FinalIntelligence is the human-readable digest of a pass.
type FinalIntelligence struct {
	Summary  string
	Insights []string // at most 5, priority order
}

// PerformanceReport summarizes agent execution timing for one pass.
type PerformanceReport struct {
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MinExecutionTime     time.Duration
	MaxExecutionTime     time.Duration
	SuccessRate          float64
	Rating               string // "excellent", "good", "fair", "poor"
}

// AggregationResult is the terminal artifact of one analysis pass.
type AggregationResult struct {
	PassID       string
	Symbol       string
	EventType    string
	Fused        FusedSignal
	Signals      []TradingSignal
	Confidence   ConfidenceScores
	Risk         RiskAssessment
	Intelligence FinalIntelligence
	Performance  PerformanceReport
	Results      []AgentResult
	CompletedAt  time.Time
}

// PassFailure reports that a pass-level stage (selection, strategy
// choice, final assembly) failed and no AggregationResult was produced.
// Agent-level failures never surface as a PassFailure.
type PassFailure struct {
	Stage string
	Err   error
}

func (f *PassFailure) Error() string {
	return fmt.Sprintf("analysis pass failed at %s: %v", f.Stage, f.Err)
}

// Unwrap returns the underlying error.
func (f *PassFailure) Unwrap() error { return f.Err }

// NewPassFailure creates a PassFailure for the named stage.
func NewPassFailure(stage string, err error) *PassFailure {
	return &PassFailure{Stage: stage, Err: err}
}
