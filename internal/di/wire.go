//go:build wireinject
// +build wireinject

package di

import (
	"SpillNet/internal/handler/api"
	"SpillNet/internal/usecase"
	"SpillNet/pkg/config"
	xhttp "SpillNet/pkg/http"
	"SpillNet/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideMarketDataSource,
	ProvidePriceStore,
	ProvideReportPublisher,
	ProvideCacheStore,
	ProvideMemo,
	ProvideReportConsumer,
)

var usecaseSet = wire.NewSet(
	ProvideIngestConfig,
	ProvideAnalysisConfig,
	ProvidePipelineConfig,
	ProvideSearcher,
	usecase.NewIngestUseCase,
	usecase.NewPipelineUseCase,
	usecase.NewDashboardUseCase,
	ProvideReportListener,
)

var httpSet = wire.NewSet(
	ProvideRateLimiter,
	api.NewDashboardEchoHandler,
	wire.Bind(new(xhttp.Handler), new(*api.DashboardEchoHandler)),
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup function releases stores, publishers and caches.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		usecaseSet,
		httpSet,
		server.New,
	)
	return nil, nil, nil
}
