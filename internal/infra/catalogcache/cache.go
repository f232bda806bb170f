// Package catalogcache answers catalog membership queries from an in-memory snapshot
// that is refreshed in the background once it goes stale.
package catalogcache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"toolusage/internal/domain"
	"toolusage/internal/infra/telemetry"
	"toolusage/internal/infra/workers"
)

const refreshKey = "catalog"

type Options struct {
	Fetcher  domain.CatalogFetcher
	Executor workers.Executor
	// StaleAfter defaults to domain.CatalogStaleAfter.
	StaleAfter time.Duration
	// RefreshTimeout bounds a background refresh. Zero leaves it unbounded.
	RefreshTimeout time.Duration
	// PluginsRoot is the directory user-installed plugins live under.
	PluginsRoot string
	Metrics     domain.Metrics
	Logger      *zap.Logger
}

// Cache holds the last fetched catalog snapshot. Membership queries never block on the
// fetcher: a stale snapshot keeps being served while at most one refresh is outstanding.
type Cache struct {
	fetcher        domain.CatalogFetcher
	executor       workers.Executor
	staleAfter     time.Duration
	refreshTimeout time.Duration
	// pluginsRoot is absolute but unresolved; each view canonicalizes it.
	pluginsRoot string
	metrics     domain.Metrics
	logger      *zap.Logger
	now         func() time.Time

	snapshot atomic.Pointer[domain.CatalogSnapshot]
	inFlight atomic.Bool
	group    singleflight.Group
}

func New(opts Options) (*Cache, error) {
	if opts.Fetcher == nil {
		return nil, domain.E(domain.CodeInvalidArgument, "catalogcache.new", "catalog fetcher is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("catalog_cache")
	executor := opts.Executor
	if executor == nil {
		executor = workers.GoExecutor{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = domain.CatalogStaleAfter
	}

	return &Cache{
		fetcher:        opts.Fetcher,
		executor:       executor,
		staleAfter:     staleAfter,
		refreshTimeout: opts.RefreshTimeout,
		pluginsRoot:    absolutePath(opts.PluginsRoot),
		metrics:        metrics,
		logger:         logger,
		now:            time.Now,
	}, nil
}

// View returns the listing to use for one classification pass, scheduling a refresh
// when the held snapshot is absent or stale.
func (c *Cache) View() Listing {
	return newListing(c.current(), c.pluginsRoot, c.logger)
}

// IsListed is shorthand for View().IsListed(origin).
func (c *Cache) IsListed(origin *domain.PluginDescriptor) bool {
	return c.View().IsListed(origin)
}

// Snapshot returns the held snapshot without triggering any refresh. It may be nil.
func (c *Cache) Snapshot() *domain.CatalogSnapshot {
	return c.snapshot.Load()
}

// Refreshing reports whether a background refresh is outstanding.
func (c *Cache) Refreshing() bool {
	return c.inFlight.Load()
}

// Refresh fetches the catalog and installs it, blocking until done.
// It shares a running background refresh instead of starting a second fetch.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

func (c *Cache) current() *domain.CatalogSnapshot {
	snap := c.snapshot.Load()
	now := c.now()
	if !snap.Stale(now, c.staleAfter) {
		c.metrics.ObserveCatalogRead(domain.CatalogReadFresh)
		return snap
	}

	if ids, ok := c.fetcher.Cached(context.Background()); ok {
		next := domain.NewCatalogSnapshot(ids, now)
		if !c.snapshot.CompareAndSwap(snap, next) {
			// a refresh landed first
			next = c.snapshot.Load()
		}
		c.metrics.ObserveCatalogRead(domain.CatalogReadCached)
		c.metrics.SetCatalogSize(next.Len())
		c.logger.Debug("catalog installed from cache",
			telemetry.EventField(telemetry.EventCatalogCachedRead),
			telemetry.CatalogSizeField(next.Len()),
		)
		return next
	}

	c.scheduleRefresh()
	c.metrics.ObserveCatalogRead(domain.CatalogReadStale)
	return snap
}

func (c *Cache) scheduleRefresh() {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.metrics.ObserveRefreshSchedule(domain.RefreshInFlight)
		return
	}
	accepted := c.executor.TryGo(func() {
		defer c.inFlight.Store(false)
		ctx := context.Background()
		if c.refreshTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
			defer cancel()
		}
		_, _ = c.refresh(ctx)
	})
	if !accepted {
		c.inFlight.Store(false)
		c.metrics.ObserveRefreshSchedule(domain.RefreshRejected)
		c.logger.Warn("catalog refresh rejected by executor",
			telemetry.EventField(telemetry.EventCatalogRefreshRejected),
		)
		return
	}
	c.metrics.ObserveRefreshSchedule(domain.RefreshScheduled)
	c.logger.Debug("catalog refresh scheduled",
		telemetry.EventField(telemetry.EventCatalogRefreshScheduled),
	)
}

func (c *Cache) refresh(ctx context.Context) (*domain.CatalogSnapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	v, err, _ := c.group.Do(refreshKey, func() (interface{}, error) {
		start := time.Now()
		ids, err := c.fetcher.Fetch(ctx)
		duration := time.Since(start)
		c.metrics.ObserveCatalogRefresh(duration, err)
		if err != nil {
			c.logger.Warn("catalog refresh failed",
				telemetry.EventField(telemetry.EventCatalogRefreshFailure),
				telemetry.DurationField(duration),
				zap.Error(err),
			)
			return nil, err
		}
		next := domain.NewCatalogSnapshot(ids, c.now())
		c.snapshot.Store(next)
		c.metrics.SetCatalogSize(next.Len())
		c.logger.Info("catalog refreshed",
			telemetry.EventField(telemetry.EventCatalogRefreshSuccess),
			telemetry.CatalogSizeField(next.Len()),
			telemetry.DurationField(duration),
		)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CatalogSnapshot), nil
}

// Listing is an immutable membership view over one snapshot.
type Listing struct {
	snapshot *domain.CatalogSnapshot
	root     string
	rawRoot  string
	logger   *zap.Logger
}

// NewListing builds a view over snapshot with root canonicalized.
func NewListing(snapshot *domain.CatalogSnapshot, pluginsRoot string) Listing {
	return newListing(snapshot, absolutePath(pluginsRoot), zap.NewNop())
}

// newListing resolves rawRoot on every call so a root created or relinked after
// startup is picked up by the next view.
func newListing(snapshot *domain.CatalogSnapshot, rawRoot string, logger *zap.Logger) Listing {
	root, _ := canonicalPath(rawRoot)
	return Listing{snapshot: snapshot, root: root, rawRoot: rawRoot, logger: logger}
}

func (l Listing) Snapshot() *domain.CatalogSnapshot {
	return l.snapshot
}

func (l Listing) Root() string {
	return l.root
}

// IsListed reports whether origin is installed under the plugins root and its id is
// in the catalog. The plugin path counts as installed when it lies under either the
// canonical root or the absolute root as configured. A nil origin or an origin
// without an id is never listed.
func (l Listing) IsListed(origin *domain.PluginDescriptor) bool {
	if origin == nil || origin.ID == "" || l.root == "" {
		return false
	}
	if !l.snapshot.Contains(origin.ID) {
		return false
	}
	path, ok := canonicalPath(origin.Path)
	if !ok && path != "" && l.logger != nil {
		l.logger.Debug("plugin path not canonicalized",
			telemetry.EventField(telemetry.EventCanonicalizeFallback),
			zap.String("plugin", origin.ID),
			zap.String("path", path),
		)
	}
	return withinRoot(path, l.root) || withinRoot(path, l.rawRoot)
}
