package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"toolusage/internal/app/usage"
	"toolusage/internal/domain"
	"toolusage/internal/infra/catalogcache"
	"toolusage/internal/infra/catalogsource"
	"toolusage/internal/infra/catalogstore"
	"toolusage/internal/infra/sink"
	"toolusage/internal/infra/telemetry"
	"toolusage/internal/infra/workers"
	"toolusage/internal/infra/workspace"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

// NewWorkerPool builds the pool background catalog refreshes run on.
func NewWorkerPool(cfg domain.Config, logger *zap.Logger) (*workers.Pool, func()) {
	pool := workers.NewPool(cfg.Catalog.RefreshWorkers, logger)
	return pool, func() {
		if err := pool.Close(); err != nil {
			logger.Warn("worker pool close failed", zap.Error(err))
		}
	}
}

func NewCatalogStore(cfg domain.Config, logger *zap.Logger) (*catalogstore.Store, func(), error) {
	store, err := catalogstore.OpenStore(cfg.Catalog.CachePath)
	if err != nil {
		return nil, nil, domain.E(domain.CodeUnavailable, "app.catalog_store", "open catalog cache", err)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("catalog store close failed", zap.Error(err))
		}
	}, nil
}

// NewCatalogSource picks the configured catalog source. It returns nil when none is configured.
func NewCatalogSource(cfg domain.Config) catalogsource.Source {
	switch {
	case cfg.Catalog.URL != "":
		return catalogsource.NewHTTPSource(cfg.Catalog.URL)
	case cfg.Catalog.File != "":
		return catalogsource.NewFileSource(cfg.Catalog.File)
	default:
		return nil
	}
}

func NewCatalogFetcher(cfg domain.Config, source catalogsource.Source, store *catalogstore.Store, logger *zap.Logger) *catalogsource.Fetcher {
	return catalogsource.NewFetcher(catalogsource.FetcherOptions{
		Source: source,
		Store:  store,
		MaxAge: cfg.Catalog.CacheMaxAge,
		Logger: logger,
	})
}

func NewCatalogCache(cfg domain.Config, fetcher domain.CatalogFetcher, executor workers.Executor, metrics domain.Metrics, logger *zap.Logger) (*catalogcache.Cache, error) {
	return catalogcache.New(catalogcache.Options{
		Fetcher:        fetcher,
		Executor:       executor,
		StaleAfter:     cfg.Catalog.StaleAfter,
		RefreshTimeout: cfg.Catalog.RefreshTimeout,
		PluginsRoot:    cfg.PluginsRoot,
		Metrics:        metrics,
		Logger:         logger,
	})
}

func NewProfileSource(cfg domain.Config, logger *zap.Logger) *workspace.ProfileSource {
	return workspace.NewProfileSource(workspace.ProfileOptions{
		ProfilePath: cfg.ProfilePath,
		PluginsRoot: cfg.PluginsRoot,
		Logger:      logger,
	})
}

func NewCollector(source domain.ToolStateSource, catalog usage.Catalog, metrics domain.Metrics, logger *zap.Logger) *usage.Collector {
	return usage.NewCollector(usage.CollectorOptions{
		Source:  source,
		Catalog: catalog,
		Metrics: metrics,
		Logger:  logger,
	})
}

// NewReportSink fans reports out to Prometheus and the log.
func NewReportSink(registry *prometheus.Registry, logger *zap.Logger) domain.UsageSink {
	return sink.Multi{
		sink.NewMetricsSink(registry),
		sink.NewLogSink(logger),
	}
}
