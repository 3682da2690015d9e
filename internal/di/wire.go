//go:build wireinject
// +build wireinject

package di

import (
	"MarketMind/pkg/config"
	"MarketMind/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideIntelligenceStorage,
		ProvideIntelligencePublisher,
		ProvideNewswireStream,

		// Analysis core
		ProvideCapabilityTable,
		ProvideAgentExecutor,
		ProvideGovernanceGate,
		ProvideClassifier,
		ProvideScheduler,
		ProvideFusionEngine,

		// Use cases
		ProvideAnalysisPass,
		ProvideIntelligenceProcessor,
		ProvideNewsAnalyzer,
		ProvideNewsCollector,
		ProvideKafkaNewsHandler,
		ProvideAnalysisQueue,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
