package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"toolusage/internal/app/usage"
	"toolusage/internal/domain"
	"toolusage/internal/infra/catalogcache"
	"toolusage/internal/infra/catalogsource"
	"toolusage/internal/infra/telemetry"
	"toolusage/internal/infra/workspace"
)

const collectorLoopName = "collector"

// Application wires the collector, catalog cache and report sinks for one workspace.
type Application struct {
	ctx       context.Context
	cfg       domain.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	health    *telemetry.HealthTracker
	cache     *catalogcache.Cache
	fetcher   *catalogsource.Fetcher
	profiles  *workspace.ProfileSource
	collector *usage.Collector
	sink      domain.UsageSink
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context   context.Context
	Config    domain.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Health    *telemetry.HealthTracker
	Cache     *catalogcache.Cache
	Fetcher   *catalogsource.Fetcher
	Profiles  *workspace.ProfileSource
	Collector *usage.Collector
	Sink      domain.UsageSink
}

func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		ctx:       ctx,
		cfg:       opts.Config,
		logger:    logger,
		registry:  opts.Registry,
		health:    opts.Health,
		cache:     opts.Cache,
		fetcher:   opts.Fetcher,
		profiles:  opts.Profiles,
		collector: opts.Collector,
		sink:      opts.Sink,
	}
}

func (a *Application) Config() domain.Config {
	return a.cfg
}

// CollectOptions tunes a one-shot collection.
type CollectOptions struct {
	// WaitCatalog blocks on a catalog fetch when no snapshot is held yet,
	// so a first run can classify listed tools.
	WaitCatalog bool
}

func (a *Application) Collect(ctx context.Context, opts CollectOptions) (domain.UsageReport, error) {
	if opts.WaitCatalog {
		a.primeCatalog(ctx)
	}
	return a.collector.Collect(ctx, a.cfg.Workspace)
}

func (a *Application) Usages(ctx context.Context, category string, opts CollectOptions) (domain.UsageSet, error) {
	if _, err := usage.Lookup(category); err != nil {
		return nil, err
	}
	if opts.WaitCatalog {
		a.primeCatalog(ctx)
	}
	return a.collector.Usages(ctx, a.cfg.Workspace, category)
}

func (a *Application) primeCatalog(ctx context.Context) {
	if a.cache.View().Snapshot() != nil {
		return
	}
	if err := a.cache.Refresh(ctx); err != nil {
		a.logger.Warn("catalog unavailable, listed categories will be empty", zap.Error(err))
	}
}

// CatalogStatus describes the held and persisted catalog.
type CatalogStatus struct {
	Source        string     `json:"source"`
	PluginsRoot   string     `json:"pluginsRoot"`
	FetchedAt     *time.Time `json:"fetchedAt,omitempty"`
	StoredAt      *time.Time `json:"storedAt,omitempty"`
	Stale         bool       `json:"stale"`
	Refreshing    bool       `json:"refreshing"`
	PluginIDs     []string   `json:"pluginIds"`
	CachePath     string     `json:"cachePath"`
	StaleAfterSec int64      `json:"staleAfterSeconds"`
}

// CatalogStatus reports the catalog as a membership query would see it.
func (a *Application) CatalogStatus() CatalogStatus {
	listing := a.cache.View()
	status := CatalogStatus{
		Source:        a.catalogSourceName(),
		PluginsRoot:   listing.Root(),
		Refreshing:    a.cache.Refreshing(),
		PluginIDs:     listing.Snapshot().IDs(),
		CachePath:     a.cfg.Catalog.CachePath,
		StaleAfterSec: int64(a.cfg.Catalog.StaleAfter / time.Second),
	}
	if status.PluginIDs == nil {
		status.PluginIDs = []string{}
	}
	if snap := listing.Snapshot(); snap != nil {
		fetchedAt := snap.FetchedAt
		status.FetchedAt = &fetchedAt
		status.Stale = snap.Stale(time.Now(), a.cfg.Catalog.StaleAfter)
	} else {
		status.Stale = true
	}
	if a.fetcher != nil {
		if stored, ok := a.fetcher.Stored(); ok {
			storedAt := stored.FetchedAt
			status.StoredAt = &storedAt
		}
	}
	return status
}

// RefreshCatalog fetches the catalog now and returns the installed snapshot.
func (a *Application) RefreshCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	if err := a.cache.Refresh(ctx); err != nil {
		return nil, err
	}
	return a.cache.Snapshot(), nil
}

func (a *Application) catalogSourceName() string {
	switch {
	case a.cfg.Catalog.URL != "":
		return telemetry.RedactURL(a.cfg.Catalog.URL)
	case a.cfg.Catalog.File != "":
		return a.cfg.Catalog.File
	default:
		return ""
	}
}

// Serve collects periodically and on profile changes, and serves observability
// endpoints, until ctx is canceled.
func (a *Application) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = a.ctx
	}
	interval := a.cfg.CollectInterval
	if interval <= 0 {
		interval = domain.DefaultCollectIntervalSeconds * time.Second
	}
	a.logger.Info("serving usage collection",
		telemetry.WorkspaceField(a.cfg.Workspace),
		zap.Duration("interval", interval),
		zap.String("profile", a.cfg.ProfilePath),
		zap.String("catalog_source", a.catalogSourceName()),
	)

	group, ctx := errgroup.WithContext(ctx)
	obs := a.cfg.Observability
	if obs.Metrics || obs.Healthz {
		group.Go(func() error {
			return telemetry.ServeObservability(ctx, obs, a.registry, a.health, a.logger)
		})
	}

	var changes <-chan struct{}
	profilePath := a.profiles.ProfilePath(a.cfg.Workspace)
	if info, err := os.Stat(filepath.Dir(profilePath)); err == nil && info.IsDir() {
		watcher := workspace.NewWatcher(profilePath, 0, a.logger)
		changes = watcher.Changes()
		group.Go(func() error {
			if err := watcher.Run(ctx); err != nil {
				a.logger.Warn("profile watcher stopped", zap.Error(err))
			}
			return nil
		})
	} else {
		a.logger.Info("profile directory missing, change detection disabled", zap.String("profile", profilePath))
	}

	var beat *telemetry.Heartbeat
	if a.health != nil {
		beat = a.health.Register(collectorLoopName, 2*interval)
	}
	group.Go(func() error {
		a.collectLoop(ctx, interval, changes, beat)
		return nil
	})
	return group.Wait()
}

func (a *Application) collectLoop(ctx context.Context, interval time.Duration, changes <-chan struct{}, beat *telemetry.Heartbeat) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.collectAndRecord(ctx, beat)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.collectAndRecord(ctx, beat)
		case <-changes:
			a.collectAndRecord(ctx, beat)
		}
	}
}

func (a *Application) collectAndRecord(ctx context.Context, beat *telemetry.Heartbeat) {
	ctx, _ = telemetry.EnsureRunMeta(ctx)
	report, err := a.collector.Collect(ctx, a.cfg.Workspace)
	if err != nil {
		return
	}
	beat.Beat()
	if a.sink == nil {
		return
	}
	if err := a.sink.Record(ctx, report); err != nil {
		telemetry.LoggerWithRun(ctx, a.logger).Warn("usage report not recorded", zap.Error(err))
	}
}
