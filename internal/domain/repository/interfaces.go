package repository

import (
	"context"
	"time"

	"MarketMind/internal/domain/models"
)

type NewsStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.NewsItem, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, r *models.AggregationResult) error
	PublishBatch(ctx context.Context, results []*models.AggregationResult) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.AggregationResult) error
	StoreBatch(ctx context.Context, results []*models.AggregationResult) error
	QueryRecent(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AggregationResult, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordAgentRun(agent string, status models.AgentStatus)
	RecordPassConfidence(symbol string, confidence float64)
	RecordLatency(op string, seconds float64)
}
