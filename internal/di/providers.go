package di

import (
	"context"
	"fmt"
	"time"

	"MarketMind/internal/agents"
	"MarketMind/internal/domain/repository"
	domsvc "MarketMind/internal/domain/service"
	"MarketMind/internal/fusion"
	"MarketMind/internal/governance"
	"MarketMind/internal/handler/api"
	mid "MarketMind/internal/middleware"
	internalrepo "MarketMind/internal/repository"
	"MarketMind/internal/scheduler"
	icache "MarketMind/internal/service/cache"
	pkgcache "MarketMind/pkg/cache"
	"MarketMind/internal/service/classify"
	"MarketMind/internal/service/newswire"
	"MarketMind/internal/usecase"
	pkgch "MarketMind/pkg/clickhouse"
	"MarketMind/pkg/config"
	xhttp "MarketMind/pkg/http"
	pkgkafka "MarketMind/pkg/kafka"
	applogger "MarketMind/pkg/logger"
	"MarketMind/pkg/metrics"
	"MarketMind/pkg/queue"
	"MarketMind/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the shared application logger. Error logs are
// aggregated and shipped to the logs topic through the producer.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Kafka.LogsTopic != "" {
		l.AttachCollector(&applogger.CollectionConfig{
			FlushInterval:  30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS marketmind",
		`CREATE TABLE IF NOT EXISTS marketmind.intelligence (
			pass_id String,
			ts DateTime,
			symbol String,
			event_type String,
			signal String,
			overall_confidence Float64,
			risk_score Float64,
			risk_level String,
			fused_polarity Float64,
			fused_label String,
			fusion_strategy String,
			success_rate Float64,
			summary String,
			payload String
		) ENGINE=MergeTree ORDER BY (symbol, ts)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideIntelligenceStorage creates ClickHouse storage repository.
func ProvideIntelligenceStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseIntelligenceStore(chClient.DB(), cfg.ClickHouse.Database+".intelligence")
}

// ProvideIntelligencePublisher creates Kafka publisher repository.
func ProvideIntelligencePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaIntelligencePublisher(producer, cfg.Kafka.IntelligenceTopic)
}

// ProvideNewswireStream creates the newswire WebSocket stream.
func ProvideNewswireStream(cfg *config.Config) repository.NewsStream {
	return newswire.New(
		cfg.Newswire.APIKey,
		cfg.Newswire.WebSocketURL,
		cfg.Newswire.Symbols,
		newswire.WithReconnectDelay(cfg.Newswire.ReconnectDelay),
		newswire.WithPingInterval(cfg.Newswire.PingInterval),
	)
}

// ProvideCapabilityTable creates the static agent capability table.
func ProvideCapabilityTable() domsvc.CapabilityTable {
	return agents.NewStaticTable(agents.DefaultSpecs()...)
}

// ProvideAgentExecutor selects the in-process registry or the remote
// HTTP executor per config.
func ProvideAgentExecutor(cfg *config.Config) domsvc.AgentExecutor {
	if cfg.Agents.Mode == "remote" {
		timeout := cfg.Agents.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return agents.NewHTTPExecutor(cfg.Agents.RemoteURL, timeout)
	}
	return agents.NewRegistry()
}

// ProvideGovernanceGate creates the admission gate.
func ProvideGovernanceGate(cfg *config.Config) *governance.Gate {
	return governance.New(governance.Config{
		MaxConcurrentPerAgent: cfg.Governance.MaxConcurrentPerAgent,
		MaxConcurrentGlobal:   cfg.Governance.MaxConcurrentGlobal,
		RateCapacity:          cfg.Governance.RateCapacity,
		RateRefillPerSec:      cfg.Governance.RateRefillPerSec,
	})
}

// ProvideClassifier creates the rule-based event classifier.
func ProvideClassifier() domsvc.Classifier {
	return classify.New()
}

// ProvideScheduler creates the agent scheduler.
func ProvideScheduler(
	table domsvc.CapabilityTable,
	gate *governance.Gate,
	exec domsvc.AgentExecutor,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *scheduler.Scheduler {
	return scheduler.New(table, gate, exec, m, l, scheduler.Config{
		BaselineAgent: cfg.Analysis.BaselineAgent,
		AgentTimeout:  cfg.Analysis.AgentTimeout,
		MaxConcurrent: cfg.Analysis.MaxConcurrent,
	})
}

// ProvideFusionEngine creates the fusion engine from the YAML tuning.
func ProvideFusionEngine(m repository.Metrics, l *applogger.Logger, cfg *config.Config) *fusion.Engine {
	f := cfg.Analysis.Fusion
	return fusion.NewEngine(fusion.Config{
		PriorWeight:       f.PriorWeight,
		LikelihoodWeight:  f.LikelihoodWeight,
		MajorityThreshold: f.MajorityThreshold,
		SentimentWeight:   f.SentimentWeight,
		KeywordWeight:     f.KeywordWeight,
		MinConfidence:     f.MinConfidence,
		BuyThreshold:      f.BuyThreshold,
		SellThreshold:     f.SellThreshold,
		AdaptationRate:    f.AdaptationRate,
		RiskThreshold:     f.RiskThreshold,
	}, m, l)
}

// ProvideAnalysisPass creates the per-item analysis pass.
func ProvideAnalysisPass(
	sched *scheduler.Scheduler,
	engine *fusion.Engine,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisPass {
	return usecase.NewAnalysisPass(sched, engine, m, l)
}

// ProvideIntelligenceProcessor creates the backend router use case.
func ProvideIntelligenceProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.IntelligenceProcessor {
	return usecase.NewIntelligenceProcessor(
		pub,
		store,
		m,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideNewsAnalyzer creates the end-to-end analyzer with a dedupe
// cache layered over redis when redis is enabled, in-memory otherwise.
func ProvideNewsAnalyzer(
	classifier domsvc.Classifier,
	pass *usecase.AnalysisPass,
	proc *usecase.IntelligenceProcessor,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.NewsAnalyzer {
	a := usecase.NewNewsAnalyzer(classifier, pass, proc, m, l)

	var store pkgcache.Store = pkgcache.NewMemory()
	if cfg.Analysis.Redis.Enabled {
		remote, err := pkgcache.NewRedis(
			pkgcache.WithAddr(cfg.Analysis.Redis.Addr),
			pkgcache.WithPassword(cfg.Analysis.Redis.Password),
			pkgcache.WithDB(cfg.Analysis.Redis.DB),
		)
		if err != nil {
			l.Warn("pass cache redis unavailable, using memory only", applogger.Error(err))
		} else {
			store = pkgcache.NewLayered(remote)
		}
	}
	a.SetCache(icache.NewPassCache(store, cfg.Analysis.CacheTTL))
	return a
}

// ProvideNewsCollector creates the collector with its middleware pipeline.
func ProvideNewsCollector(
	stream repository.NewsStream,
	analyzer *usecase.NewsAnalyzer,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.NewsCollector {
	maxRPS := cfg.Newswire.MaxRPS
	if maxRPS <= 0 {
		maxRPS = 5
	}
	bufSize := cfg.Newswire.BufferSize
	if bufSize <= 0 {
		bufSize = 500
	}
	pipe := mid.NewNewsPipeline(analyzer, m,
		mid.WithMaxRPS(maxRPS),
		mid.WithBufferSize(bufSize),
	)
	return usecase.NewNewsCollector(stream, analyzer, m, pipe)
}

// ProvideKafkaNewsHandler registers the handler for the news topic.
func ProvideKafkaNewsHandler(analyzer *usecase.NewsAnalyzer, m repository.Metrics, cfg *config.Config) *usecase.KafkaNewsHandler {
	return usecase.NewKafkaNewsHandler(cfg.Kafka.NewsTopic, analyzer, m)
}

// ProvideAnalysisQueue creates the Redis queue consuming async analysis
// requests. Returns nil when Redis is disabled.
func ProvideAnalysisQueue(analyzer *usecase.NewsAnalyzer, l *applogger.Logger, cfg *config.Config) *queue.RedisQueue {
	if !cfg.Analysis.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Analysis.Redis.Addr,
		Password: cfg.Analysis.Redis.Password,
		DB:       cfg.Analysis.Redis.DB,
	})
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	q := queue.NewRedisQueue(l, qcfg, client, queue.ModeProducerConsumer,
		queue.WithKeyPrefix("marketmind:queue"),
	)
	q.RegisterJob(usecase.NewAnalysisJob(analyzer))
	return q
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	classifier domsvc.Classifier,
	pass *usecase.AnalysisPass,
	store repository.Storage,
	table domsvc.CapabilityTable,
	gate *governance.Gate,
	q *queue.RedisQueue,
) xhttp.Handler {
	var qs queue.QueueService
	if q != nil {
		qs = q
	}
	return api.NewAnalyzeHandler(l, classifier, pass, store, table, gate, qs)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.NewsCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaNewsHandler,
	chClient *pkgch.Client,
	proc *usecase.IntelligenceProcessor,
	h xhttp.Handler,
	q *queue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.TraceHook{})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient)
	app.SetHTTPHandler(h)
	if q != nil {
		app.SetQueue(q)
	}
	app.Processor = proc
	return app
}
