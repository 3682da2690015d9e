package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketMind/internal/domain/models"
	"MarketMind/pkg/queue"

	"github.com/google/uuid"
)

// AnalysisRequestType is the queue message type for async passes.
const AnalysisRequestType = "analysis_request"

// AnalysisRequest is the queued payload for an async analysis pass.
type AnalysisRequest struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
	Source   string `json:"source"`
}

// AnalysisJob drains queued analysis requests through the analyzer.
type AnalysisJob struct {
	analyzer *NewsAnalyzer
}

func NewAnalysisJob(analyzer *NewsAnalyzer) *AnalysisJob {
	return &AnalysisJob{analyzer: analyzer}
}

func (j *AnalysisJob) Name() string { return "analysis_request_job" }

func (j *AnalysisJob) Type() string { return AnalysisRequestType }

func (j *AnalysisJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[AnalysisRequest](payload)
	if err != nil {
		return fmt.Errorf("parse analysis request: %w", err)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return j.analyzer.Process(ctx, &models.NewsItem{
		ID:          req.ID,
		Symbol:      req.Symbol,
		Headline:    req.Headline,
		Body:        req.Body,
		Source:      req.Source,
		PublishedAt: time.Now(),
	})
}

var _ queue.Job = (*AnalysisJob)(nil)
