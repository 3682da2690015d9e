package usecase

import (
	"context"

	"MarketMind/internal/domain/models"
	drepo "MarketMind/internal/domain/repository"
	mid "MarketMind/internal/middleware"
)

// NewsCollector collects items from the news stream and feeds them into
// the analysis pipeline.
type NewsCollector struct {
	stream   drepo.NewsStream
	analyzer *NewsAnalyzer
	metrics  drepo.Metrics
	pipe     *mid.NewsPipeline
}

// NewNewsCollector creates a new NewsCollector instance.
func NewNewsCollector(stream drepo.NewsStream, analyzer *NewsAnalyzer, metrics drepo.Metrics, pipe *mid.NewsPipeline) *NewsCollector {
	return &NewsCollector{stream: stream, analyzer: analyzer, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the news stream is connected.
func (c *NewsCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *NewsCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	itemCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, itemCh, errCh)
	return nil
}

func (c *NewsCollector) consume(ctx context.Context, itemCh <-chan *models.NewsItem, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case item := <-itemCh:
			if item == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, item)
			} else {
				_ = c.analyzer.Process(ctx, item)
			}
		}
	}
}

func (c *NewsCollector) Stop() error { return c.stream.Close() }

// Shutdown stops pipeline and closes stream.
func (c *NewsCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
