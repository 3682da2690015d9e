package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Message is a key/value pair handed to PublishBatch. Value may be
// []byte, string, or any JSON-marshalable type.
type Message struct {
	Key   []byte
	Value interface{}
}

// Producer publishes intelligence and log payloads through a shared
// kafka-go writer.
type Producer struct {
	writer *kafka.Writer
	codec  string
}

// NewProducer builds a producer from options. Brokers are mandatory.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}

	registerProducerMetrics()
	return &Producer{
		codec: cfg.Compression,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     balancer,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  parseCompression(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.BatchTimeout,
			Async:        cfg.Async,
		},
	}, nil
}

// Publish sends one message to the topic.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	body, err := encodeValue(value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: body,
		Time:  start,
	})
	p.observe(topic, int64(len(body)), 1, time.Since(start), err)
	return err
}

// PublishMessage sends a keyless message. Satisfies sinks that only
// carry topic and payload, such as the log collector's Publisher.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// PublishBatch sends messages to the topic in one writer call.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	now := time.Now()
	msgs := make([]kafka.Message, 0, len(messages))
	var totalBytes int64
	for _, m := range messages {
		body, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: body,
			Time:  now,
		})
		totalBytes += int64(len(body))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	p.observe(topic, totalBytes, len(messages), time.Since(now), err)
	return err
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return b, nil
	}
}

func parseCompression(codec string) kafka.Compression {
	switch codec {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

var (
	producerMetricsOnce sync.Once
	publishedTotal      *prometheus.CounterVec
	publishErrorsTotal  *prometheus.CounterVec
	publishedBytesTotal *prometheus.CounterVec
	publishSeconds      *prometheus.HistogramVec
)

func registerProducerMetrics() {
	producerMetricsOnce.Do(func() {
		publishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmind_kafka_producer_messages_total",
				Help: "Messages published, by topic and result",
			},
			[]string{"topic", "compression", "result"},
		)
		publishErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmind_kafka_producer_errors_total",
				Help: "Failed publish calls",
			},
			[]string{"topic"},
		)
		publishedBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmind_kafka_producer_bytes_total",
				Help: "Payload bytes published",
			},
			[]string{"topic", "compression"},
		)
		publishSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketmind_kafka_producer_publish_seconds",
				Help:    "Publish latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		)
	})
}

func (p *Producer) observe(topic string, bytes int64, count int, dur time.Duration, err error) {
	if publishedTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		publishErrorsTotal.WithLabelValues(topic).Inc()
	}
	publishedTotal.WithLabelValues(topic, p.codec, result).Add(float64(count))
	publishedBytesTotal.WithLabelValues(topic, p.codec).Add(float64(bytes))
	publishSeconds.WithLabelValues(topic).Observe(dur.Seconds())
}
