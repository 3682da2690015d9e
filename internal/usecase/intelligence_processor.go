package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketMind/internal/domain/models"
	drepo "MarketMind/internal/domain/repository"
)

// IntelligenceProcessor routes finished pass results to the configured
// backend. With a batch size above one it buffers results and flushes
// on size or interval; otherwise every result is dispatched directly.
type IntelligenceProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string

	batchSize  int
	flushEvery time.Duration

	mu  sync.Mutex
	buf []*models.AggregationResult

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewIntelligenceProcessor builds the router. batchSize <= 1 disables
// buffering.
func NewIntelligenceProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
	batchSize int,
	flushEvery time.Duration,
) *IntelligenceProcessor {
	p := &IntelligenceProcessor{
		pub:        pub,
		store:      store,
		metrics:    metrics,
		backend:    backend,
		batchSize:  batchSize,
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
	}
	if p.buffered() {
		p.buf = make([]*models.AggregationResult, 0, batchSize)
		if flushEvery > 0 {
			p.wg.Add(1)
			go p.flushLoop()
		}
	}
	return p
}

func (p *IntelligenceProcessor) buffered() bool { return p.batchSize > 1 }

// Process routes one result. In buffered mode it is enqueued and the
// batch is flushed once full; the flush error, if any, is returned to
// the caller that tipped the batch over.
func (p *IntelligenceProcessor) Process(ctx context.Context, r *models.AggregationResult) error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}
	if !p.buffered() {
		return p.dispatch(ctx, []*models.AggregationResult{r}, "process")
	}

	p.mu.Lock()
	p.buf = append(p.buf, r)
	full := len(p.buf) >= p.batchSize
	var pending []*models.AggregationResult
	if full {
		pending = p.take()
	}
	p.mu.Unlock()

	if !full {
		return nil
	}
	return p.dispatch(ctx, pending, "process_batch")
}

// ProcessBatch routes results in one backend call, bypassing the buffer.
func (p *IntelligenceProcessor) ProcessBatch(ctx context.Context, results []*models.AggregationResult) error {
	if len(results) == 0 {
		return nil
	}
	return p.dispatch(ctx, results, "process_batch")
}

// take swaps out the buffer. Caller must hold mu.
func (p *IntelligenceProcessor) take() []*models.AggregationResult {
	pending := p.buf
	p.buf = make([]*models.AggregationResult, 0, p.batchSize)
	return pending
}

func (p *IntelligenceProcessor) dispatch(ctx context.Context, results []*models.AggregationResult, op string) error {
	start := time.Now()

	var err error
	switch p.backend {
	case "kafka":
		if len(results) == 1 {
			err = p.pub.Publish(ctx, results[0])
		} else {
			err = p.pub.PublishBatch(ctx, results)
		}
	case "clickhouse":
		if len(results) == 1 {
			err = p.store.Store(ctx, results[0])
		} else {
			err = p.store.StoreBatch(ctx, results)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError(op)
		return fmt.Errorf("%s intelligence: %w", op, err)
	}

	for _, r := range results {
		p.metrics.RecordMessageSent(p.backend, r.Symbol)
	}
	p.metrics.RecordLatency(op, time.Since(start).Seconds())
	return nil
}

func (p *IntelligenceProcessor) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *IntelligenceProcessor) flush() {
	p.mu.Lock()
	pending := p.take()
	p.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// dispatch records the error metric; nothing else to do off-path
	_ = p.dispatch(ctx, pending, "process_batch")
}

// Close flushes any buffered results and releases the backends.
func (p *IntelligenceProcessor) Close() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
	if p.buffered() {
		p.flush()
	}

	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
