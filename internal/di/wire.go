//go:build wireinject
// +build wireinject

package di

import (
	"StalkPull/pkg/config"
	"StalkPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Core engine
		ProvideEngine,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideWeekStore,
		ProvidePublisher,

		// Live hub
		ProvideHub,
		ProvideNotifier,

		// Use cases
		ProvideForecaster,
		ProvideReportIngest,

		// Transport
		ProvideForecastHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
