package usecase

import (
	"context"
	"encoding/json"
	"time"

	"MarketMind/internal/domain/models"
	domrepo "MarketMind/internal/domain/repository"
	pkgkafka "MarketMind/pkg/kafka"
)

// KafkaNewsHandler consumes news items from Kafka and runs analysis
// passes over them.
type KafkaNewsHandler struct {
	topic    string
	analyzer *NewsAnalyzer
	metrics  domrepo.Metrics
}

func NewKafkaNewsHandler(topic string, analyzer *NewsAnalyzer, metrics domrepo.Metrics) *KafkaNewsHandler {
	return &KafkaNewsHandler{topic: topic, analyzer: analyzer, metrics: metrics}
}

func (h *KafkaNewsHandler) Topic() string { return h.topic }

// incoming message schema: {id, symbol, headline, body, source, published_at}
func (h *KafkaNewsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ID          string `json:"id"`
		Symbol      string `json:"symbol"`
		Headline    string `json:"headline"`
		Body        string `json:"body"`
		Source      string `json:"source"`
		PublishedAt int64  `json:"published_at"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.PublishedAt > 1e11 { // ms
		m.PublishedAt = m.PublishedAt / 1000
	}
	// E2E latency from publish time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.PublishedAt, 0)).Seconds())

	return h.analyzer.Process(ctx, &models.NewsItem{
		ID:          m.ID,
		Symbol:      m.Symbol,
		Headline:    m.Headline,
		Body:        m.Body,
		Source:      m.Source,
		PublishedAt: time.Unix(m.PublishedAt, 0),
	})
}

var _ pkgkafka.MessageHandler = (*KafkaNewsHandler)(nil)
