//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"toolusage/internal/app/usage"
	"toolusage/internal/domain"
	"toolusage/internal/infra/catalogcache"
	"toolusage/internal/infra/catalogsource"
	"toolusage/internal/infra/workers"
	"toolusage/internal/infra/workspace"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
	NewWorkerPool,
	wire.Bind(new(workers.Executor), new(*workers.Pool)),
)

var CatalogSet = wire.NewSet(
	NewCatalogSource,
	NewCatalogStore,
	NewCatalogFetcher,
	wire.Bind(new(domain.CatalogFetcher), new(*catalogsource.Fetcher)),
	NewCatalogCache,
	wire.Bind(new(usage.Catalog), new(*catalogcache.Cache)),
)

var UsageSet = wire.NewSet(
	NewProfileSource,
	wire.Bind(new(domain.ToolStateSource), new(*workspace.ProfileSource)),
	NewCollector,
	NewReportSink,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	CatalogSet,
	UsageSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
