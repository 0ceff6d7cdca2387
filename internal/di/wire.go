//go:build wireinject
// +build wireinject

package di

import (
	"AssetBrief/pkg/config"
	"AssetBrief/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideHistoryStore,
		ProvideEventPublisher,

		// Data providers
		ProvidePriceProvider,
		ProvideNewsProvider,
		ProvideKnowledgeProvider,

		// Pipeline
		ProvideGenerator,
		ProvideAssembler,
		ProvideWorkflows,

		// HTTP surface
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
