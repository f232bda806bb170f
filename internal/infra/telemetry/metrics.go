package telemetry

import (
	"time"

	"toolusage/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveCatalogRead(_ domain.CatalogReadSource) {}

func (n *NoopMetrics) ObserveRefreshSchedule(_ domain.RefreshScheduleOutcome) {}

func (n *NoopMetrics) ObserveCatalogRefresh(_ time.Duration, _ error) {}

func (n *NoopMetrics) SetCatalogSize(_ int) {}

func (n *NoopMetrics) ObserveCollection(_ time.Duration, _ error) {}

func (n *NoopMetrics) SetCategoryUsage(_ string, _ int) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
