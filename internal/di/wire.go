//go:build wireinject
// +build wireinject

package di

import (
	"GridCast/pkg/config"
	"GridCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// External capabilities
		ProvideForecastProvider,
		ProvideMarketDataSource,
		ProvideMarketStream,

		// Repositories
		ProvidePriceStore,
		ProvideTickPublisher,
		ProvideAlertPublisher,

		// Domain services and use cases
		ProvideSyntheticGenerator,
		ProvidePriceProcessor,
		ProvidePriceCollector,
		ProvideForecastOrchestrator,
		ProvideAnomalyDetector,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
