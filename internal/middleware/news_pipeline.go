package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketMind/internal/domain/models"
	domrepo "MarketMind/internal/domain/repository"
	"MarketMind/internal/service/ratelimit"
)

// Proc is the downstream the pipeline feeds.
type Proc interface {
	Process(ctx context.Context, item *models.NewsItem) error
}

// NewsPipeline sits between the news stream and analysis. It validates
// items, throttles per symbol with a token bucket (bursts up to maxRPS,
// refilled at maxRPS/sec), and parks items in a retry buffer when the
// downstream fails.
type NewsPipeline struct {
	downstream Proc
	metrics    domrepo.Metrics
	limiter    *ratelimit.Limiter
	transform  func(*models.NewsItem) *models.NewsItem

	maxRPS   int
	retryBuf chan *models.NewsItem

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type PipelineOption func(*NewsPipeline)

// WithMaxRPS caps accepted items per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *NewsPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *NewsPipeline) {
		if n > 0 {
			p.retryBuf = make(chan *models.NewsItem, n)
		}
	}
}

// WithTransform installs a normalization hook applied before validation
// of the transformed item.
func WithTransform(fn func(*models.NewsItem) *models.NewsItem) PipelineOption {
	return func(p *NewsPipeline) { p.transform = fn }
}

// NewNewsPipeline builds the pipeline. Analysis is far slower than raw
// ticks, so the defaults throttle much harder than a market-data feed
// would.
func NewNewsPipeline(downstream Proc, metrics domrepo.Metrics, opts ...PipelineOption) *NewsPipeline {
	p := &NewsPipeline{
		downstream: downstream,
		metrics:    metrics,
		limiter:    ratelimit.New(),
		maxRPS:     5,
		retryBuf:   make(chan *models.NewsItem, 500),
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the retry drain loop.
func (p *NewsPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	p.wg.Add(1)
	go p.drainRetries(ctx)
}

// Stop halts the drain loop and waits for it.
func (p *NewsPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

// Process validates, throttles, and forwards one item. A throttled item
// is dropped silently; a downstream failure parks the item for retry and
// surfaces the error.
func (p *NewsPipeline) Process(ctx context.Context, item *models.NewsItem) error {
	start := time.Now()

	if err := validateItem(item); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		item = p.transform(item)
		if err := validateItem(item); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}

	if !p.limiter.Allow(item.Symbol, float64(p.maxRPS), float64(p.maxRPS)) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		p.metrics.RecordError("pipeline_throttle_" + item.Symbol)
		return nil
	}

	if err := p.downstream.Process(ctx, item); err != nil {
		p.metrics.RecordError("pipeline_process")
		p.park(item)
		return fmt.Errorf("pipeline downstream: %w", err)
	}

	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// park queues the item for the retry loop, dropping when full.
func (p *NewsPipeline) park(item *models.NewsItem) {
	select {
	case p.retryBuf <- item:
		p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.retryBuf)))
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
}

// drainRetries replays parked items with exponential backoff between
// consecutive failures.
func (p *NewsPipeline) drainRetries(ctx context.Context) {
	defer p.wg.Done()

	const minBackoff = 50 * time.Millisecond
	const maxBackoff = 2 * time.Second
	backoff := minBackoff

	for {
		select {
		case <-p.stopCh:
			return
		case item := <-p.retryBuf:
			if item == nil {
				continue
			}
			if err := p.downstream.Process(ctx, item); err != nil {
				p.metrics.RecordError("pipeline_flush")
				if backoff < maxBackoff {
					backoff *= 2
				}
				select {
				case <-p.stopCh:
					return
				case <-time.After(backoff):
				}
				p.park(item)
				continue
			}
			backoff = minBackoff
		}
	}
}

func validateItem(item *models.NewsItem) error {
	if item == nil {
		return fmt.Errorf("item nil")
	}
	if item.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if item.Headline == "" {
		return fmt.Errorf("headline empty")
	}
	if item.PublishedAt.IsZero() {
		return fmt.Errorf("published_at invalid")
	}
	return nil
}
