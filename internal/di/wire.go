//go:build wireinject
// +build wireinject

package di

import (
	"BrentShift/pkg/config"
	"BrentShift/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Core pipeline stages
		ProvideLoader,
		ProvideModel,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideRedisCache,

		// Repositories
		ProvideEventStore,
		ProvideEventPublisher,

		// Use cases
		ProvideCache,
		ProvidePipeline,
		ProvideEventsUseCase,
		ProvideDetectionJob,

		// Serving layer
		ProvideQueue,
		ProvideTrigger,
		ProvideHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
