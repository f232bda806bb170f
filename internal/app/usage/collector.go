package usage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"toolusage/internal/domain"
	"toolusage/internal/infra/catalogcache"
	"toolusage/internal/infra/telemetry"
)

// Catalog hands out one membership view per classification pass.
type Catalog interface {
	View() catalogcache.Listing
}

type CollectorOptions struct {
	Source  domain.ToolStateSource
	Catalog Catalog
	Metrics domain.Metrics
	Logger  *zap.Logger
}

// Collector evaluates usage categories for a workspace.
type Collector struct {
	source  domain.ToolStateSource
	catalog Catalog
	metrics domain.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewCollector(opts CollectorOptions) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Collector{
		source:  opts.Source,
		catalog: opts.Catalog,
		metrics: metrics,
		logger:  logger.Named("usage"),
		now:     time.Now,
	}
}

// Usages returns the usage set of one category for workspace.
func (c *Collector) Usages(ctx context.Context, workspace, category string) (domain.UsageSet, error) {
	cat, err := Lookup(category)
	if err != nil {
		return nil, err
	}
	states, err := c.listStates(ctx, workspace)
	if err != nil {
		return nil, err
	}
	return cat.Usages(c.view(), states), nil
}

// Collect evaluates every category over a single tool state list and membership view.
func (c *Collector) Collect(ctx context.Context, workspace string) (domain.UsageReport, error) {
	ctx, meta := telemetry.EnsureRunMeta(ctx)
	logger := telemetry.LoggerWithRun(ctx, c.logger).With(telemetry.WorkspaceField(workspace))
	start := c.now()

	states, err := c.listStates(ctx, workspace)
	if err != nil {
		duration := c.now().Sub(start)
		c.metrics.ObserveCollection(duration, err)
		logger.Warn("usage collection failed",
			telemetry.EventField(telemetry.EventCollectFailure),
			telemetry.DurationField(duration),
			zap.Error(err),
		)
		return domain.UsageReport{}, err
	}

	view := c.view()
	report := domain.UsageReport{
		RunID:       meta.RunID,
		Workspace:   workspace,
		CollectedAt: start,
		ToolCount:   len(states),
		Categories:  make([]domain.CategoryUsage, 0, len(registry)),
	}
	if snap := view.Snapshot(); snap != nil {
		fetchedAt := snap.FetchedAt
		report.CatalogFetchedAt = &fetchedAt
		report.CatalogSize = snap.Len()
	}
	for _, cat := range registry {
		usages := cat.Usages(view, states)
		c.metrics.SetCategoryUsage(cat.Name, len(usages))
		report.Categories = append(report.Categories, domain.CategoryUsage{
			Name:    cat.Name,
			GroupID: cat.GroupID,
			Usages:  usages,
		})
	}

	duration := c.now().Sub(start)
	c.metrics.ObserveCollection(duration, nil)
	logger.Debug("usage collected",
		telemetry.EventField(telemetry.EventCollectSuccess),
		telemetry.CatalogSizeField(report.CatalogSize),
		zap.Int("tools", report.ToolCount),
		telemetry.DurationField(duration),
	)
	return report, nil
}

func (c *Collector) listStates(ctx context.Context, workspace string) ([]domain.ToolState, error) {
	if c.source == nil {
		return nil, nil
	}
	return c.source.ListToolStates(ctx, workspace)
}

func (c *Collector) view() catalogcache.Listing {
	if c.catalog == nil {
		return catalogcache.NewListing(nil, "")
	}
	return c.catalog.View()
}
