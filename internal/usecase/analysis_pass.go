package usecase

import (
	"context"
	"time"

	"MarketMind/internal/domain/models"
	domrepo "MarketMind/internal/domain/repository"
	"MarketMind/internal/fusion"
	"MarketMind/internal/scheduler"
	applogger "MarketMind/pkg/logger"

	"github.com/google/uuid"
)

// AnalysisPass is the core entry point: one end-to-end select → execute
// → validate → fuse run over a single news item.
type AnalysisPass struct {
	sched   *scheduler.Scheduler
	engine  *fusion.Engine
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

// NewAnalysisPass creates the pass use case.
func NewAnalysisPass(sched *scheduler.Scheduler, engine *fusion.Engine, metrics domrepo.Metrics, logger *applogger.Logger) *AnalysisPass {
	return &AnalysisPass{sched: sched, engine: engine, metrics: metrics, logger: logger}
}

// Run executes one pass. The only error shape is *models.PassFailure;
// agent-level failures are contained inside the result.
func (p *AnalysisPass) Run(ctx context.Context, cls models.Classification, item *models.NewsItem) (*models.AggregationResult, error) {
	start := time.Now()
	passID := uuid.NewString()

	base := models.AgentInput{
		Text:   item.Headline + "\n\n" + item.Body,
		Symbol: item.Symbol,
		Metadata: map[string]any{
			"event_type":                cls.EventType,
			"classification_confidence": cls.Confidence,
			"source":                    item.Source,
			"published_at":              item.PublishedAt,
		},
	}

	report, err := p.sched.Run(ctx, cls, base)
	if err != nil {
		p.metrics.RecordError("pass_scheduler")
		p.logger.Error("analysis pass failed",
			applogger.String("pass_id", passID),
			applogger.String("symbol", item.Symbol),
			applogger.Error(err))
		return nil, err
	}

	outcome, err := p.engine.Fuse(report, cls)
	if err != nil {
		p.metrics.RecordError("pass_fusion")
		p.logger.Error("analysis pass failed",
			applogger.String("pass_id", passID),
			applogger.String("symbol", item.Symbol),
			applogger.Error(err))
		return nil, err
	}

	result := &models.AggregationResult{
		PassID:       passID,
		Symbol:       item.Symbol,
		EventType:    cls.EventType,
		Fused:        outcome.Fused,
		Signals:      outcome.Signals,
		Confidence:   outcome.Confidence,
		Risk:         outcome.Risk,
		Intelligence: outcome.Intelligence,
		Performance:  report.Performance,
		Results:      report.Results,
		CompletedAt:  time.Now(),
	}

	p.metrics.RecordPassConfidence(item.Symbol, result.Confidence.Overall)
	p.metrics.RecordLatency("analysis_pass", time.Since(start).Seconds())
	p.logger.Info("analysis pass completed",
		applogger.String("pass_id", passID),
		applogger.String("symbol", item.Symbol),
		applogger.String("event_type", cls.EventType),
		applogger.String("strategy", string(report.Strategy.Kind)),
		applogger.String("fusion", string(outcome.Fused.Strategy)),
		applogger.Int("agents", report.Attempted))
	return result, nil
}
