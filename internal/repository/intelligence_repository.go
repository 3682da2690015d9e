package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketMind/internal/domain/models"
	"MarketMind/internal/domain/repository"
	pkgkafka "MarketMind/pkg/kafka"
)

// ClickHouseIntelligenceStore implements Storage for ClickHouse.
// Results are flattened into queryable columns; the full artifact is
// kept alongside as JSON for exact round-trips.
type ClickHouseIntelligenceStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseIntelligenceStore creates ClickHouse storage.
func NewClickHouseIntelligenceStore(db *sql.DB, table string) repository.Storage {
	return &ClickHouseIntelligenceStore{db: db, table: table}
}

func (s *ClickHouseIntelligenceStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseIntelligenceStore) Store(ctx context.Context, r *models.AggregationResult) error {
	cols, args, err := flatten(r)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (pass_id, ts, symbol, event_type, signal, overall_confidence, risk_score, risk_level, fused_polarity, fused_label, fusion_strategy, success_rate, summary, payload) VALUES %s", s.table, cols)
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseIntelligenceStore) StoreBatch(ctx context.Context, results []*models.AggregationResult) error {
	if len(results) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 500
	for start := 0; start < len(results); start += chunkSize {
		end := min(start+chunkSize, len(results))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*14)
		for _, r := range results[start:end] {
			if r == nil || r.PassID == "" {
				continue
			}
			cols, rowArgs, err := flatten(r)
			if err != nil {
				continue
			}
			values = append(values, cols)
			args = append(args, rowArgs...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (pass_id, ts, symbol, event_type, signal, overall_confidence, risk_score, risk_level, fused_polarity, fused_label, fusion_strategy, success_rate, summary, payload) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func flatten(r *models.AggregationResult) (string, []interface{}, error) {
	if r == nil {
		return "", nil, fmt.Errorf("result is nil")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return "", nil, fmt.Errorf("marshal result: %w", err)
	}
	signal := string(models.SignalHold)
	if len(r.Signals) > 0 {
		signal = string(r.Signals[0].Signal)
	}
	args := []interface{}{
		r.PassID,
		r.CompletedAt,
		r.Symbol,
		r.EventType,
		signal,
		r.Confidence.Overall,
		r.Risk.Score,
		r.Risk.Level,
		r.Fused.Polarity,
		r.Fused.Label,
		string(r.Fused.Strategy),
		r.Performance.SuccessRate,
		r.Intelligence.Summary,
		string(payload),
	}
	return "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", args, nil
}

func (s *ClickHouseIntelligenceStore) QueryRecent(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AggregationResult, error) {
	q := fmt.Sprintf("SELECT payload FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.AggregationResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r models.AggregationResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("unmarshal stored result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

func (s *ClickHouseIntelligenceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseIntelligenceStore) Close() error {
	return nil // Managed by pkg
}

// KafkaIntelligencePublisher implements Publisher for Kafka.
type KafkaIntelligencePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaIntelligencePublisher creates a Kafka publisher.
func NewKafkaIntelligencePublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaIntelligencePublisher{producer: producer, topic: topic}
}

func (p *KafkaIntelligencePublisher) Publish(ctx context.Context, r *models.AggregationResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), publishValue(r))
}

func (p *KafkaIntelligencePublisher) PublishBatch(ctx context.Context, results []*models.AggregationResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(results))
	for i, r := range results {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Symbol),
			Value: publishValue(r),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func publishValue(r *models.AggregationResult) map[string]interface{} {
	signal := string(models.SignalHold)
	if len(r.Signals) > 0 {
		signal = string(r.Signals[0].Signal)
	}
	return map[string]interface{}{
		"pass_id":    r.PassID,
		"symbol":     r.Symbol,
		"event":      r.EventType,
		"signal":     signal,
		"confidence": r.Confidence.Overall,
		"risk":       r.Risk.Score,
		"summary":    r.Intelligence.Summary,
		"t":          r.CompletedAt.Unix(),
	}
}

func (p *KafkaIntelligencePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
