package metrics

import (
	"MarketMind/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	agentRuns      *prometheus.CounterVec
	passConfidence *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmind_messages_sent_total",
				Help: "Total number of results sent to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmind_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		agentRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmind_agent_runs_total",
				Help: "Agent runs by terminal status",
			},
			[]string{"agent", "status"},
		),
		passConfidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketmind_pass_confidence",
				Help: "Overall confidence of the last pass for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketmind_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordMessageSent records a result sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAgentRun records one agent run outcome.
func (r *Recorder) RecordAgentRun(agent string, status models.AgentStatus) {
	r.agentRuns.WithLabelValues(agent, string(status)).Inc()
}

// RecordPassConfidence records the overall confidence of the last pass.
func (r *Recorder) RecordPassConfidence(symbol string, confidence float64) {
	r.passConfidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
