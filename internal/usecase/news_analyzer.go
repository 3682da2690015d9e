package usecase

import (
	"context"
	"errors"

	"MarketMind/internal/domain/models"
	drepo "MarketMind/internal/domain/repository"
	domsvc "MarketMind/internal/domain/service"
	icache "MarketMind/internal/service/cache"
	applogger "MarketMind/pkg/logger"
)

// NewsAnalyzer is the downstream the pipeline feeds: it classifies one
// item, runs the analysis pass, and routes the result to the backend.
// A short-TTL digest cache short-circuits duplicate items.
type NewsAnalyzer struct {
	classifier domsvc.Classifier
	pass       *AnalysisPass
	proc       *IntelligenceProcessor
	metrics    drepo.Metrics
	logger     *applogger.Logger
	cache      *icache.PassCache
}

// NewNewsAnalyzer creates the analyzer. The duplicate cache is optional
// and attached via SetCache.
func NewNewsAnalyzer(classifier domsvc.Classifier, pass *AnalysisPass, proc *IntelligenceProcessor, metrics drepo.Metrics, logger *applogger.Logger) *NewsAnalyzer {
	return &NewsAnalyzer{
		classifier: classifier,
		pass:       pass,
		proc:       proc,
		metrics:    metrics,
		logger:     logger,
	}
}

// SetCache enables the duplicate-item short circuit.
func (a *NewsAnalyzer) SetCache(c *icache.PassCache) {
	a.cache = c
}

// Process runs one item end to end.
func (a *NewsAnalyzer) Process(ctx context.Context, item *models.NewsItem) error {
	if item == nil {
		return errors.New("news item is nil")
	}

	if a.cache != nil {
		if _, ok := a.cache.Get(ctx, item); ok {
			a.metrics.RecordMessageSent("cache", item.Symbol)
			a.logger.Debug("duplicate item skipped", applogger.String("symbol", item.Symbol))
			return nil
		}
	}

	cls, err := a.classifier.Classify(ctx, item)
	if err != nil {
		a.metrics.RecordError("classify")
		return err
	}

	result, err := a.pass.Run(ctx, cls, item)
	if err != nil {
		// PassFailure is already logged and counted by the pass itself
		return err
	}

	if a.cache != nil {
		if err := a.cache.Put(ctx, item, result); err != nil {
			a.logger.Warn("pass cache set failed", applogger.Error(err))
		}
	}

	return a.proc.Process(ctx, result)
}
