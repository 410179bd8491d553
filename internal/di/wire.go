//go:build wireinject
// +build wireinject

package di

import (
	"AgriChain/internal/usecase"
	"AgriChain/pkg/config"
	"AgriChain/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Infrastructure
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideHistoryStore,
	ProvideForecastPublisher,
	ProvideModelCache,

	// Use cases
	ProvideTrainer,
	ProvideForecastService,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,
		ProvideCatalog,
		ProvideBytesCache,
		ProvideRateLimiter,
		ProvideHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeForecaster wires the forecasting use case alone, for the CLI.
func InitializeForecaster(cfg *config.Config) (*usecase.PriceForecastService, func(), error) {
	wire.Build(coreSet)
	return nil, nil, nil
}
