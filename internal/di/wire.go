//go:build wireinject
// +build wireinject

package di

import (
	"rainwatch/pkg/config"
	"rainwatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideLocation,
		ProvideCache,

		// Upstream providers and local models
		ProvideHistoryProvider,
		ProvideLiveProvider,
		ProvideForecaster,
		ProvideRiskScorer,

		// Storage and pipeline
		ProvideClickHouseClient,
		ProvideArchive,
		ProvideKafkaProducer,
		ProvidePublisher,
		ProvideProcessor,
		ProvideCollector,
		ProvideKafkaConsumer,
		ProvideObservationsHandler,

		// HTTP surface
		ProvideDashboard,
		ProvideLiveStream,
		ProvideHTTPHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
