package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolusage/internal/domain"
)

func TestNewPrometheusMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveCatalogRead(domain.CatalogReadFresh)
	m.ObserveRefreshSchedule(domain.RefreshScheduled)
	m.ObserveCatalogRefresh(20*time.Millisecond, nil)
	m.SetCatalogSize(12)
	m.ObserveCollection(time.Millisecond, nil)
	m.SetCategoryUsage("all-bundled", 4)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	assert.Contains(t, names, "toolusage_catalog_reads_total")
	assert.Contains(t, names, "toolusage_catalog_refresh_requests_total")
	assert.Contains(t, names, "toolusage_catalog_refresh_duration_seconds")
	assert.Contains(t, names, "toolusage_catalog_entries")
	assert.Contains(t, names, "toolusage_collection_duration_seconds")
	assert.Contains(t, names, "toolusage_category_tools")
}

func TestPrometheusMetrics_ImplementsInterface(t *testing.T) {
	var _ domain.Metrics = (*PrometheusMetrics)(nil)
	var _ domain.Metrics = (*NoopMetrics)(nil)
}

func TestPrometheusMetrics_RefreshStatusLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)

	m.ObserveCatalogRefresh(time.Second, nil)
	m.ObserveCatalogRefresh(time.Second, errors.New("boom"))
	m.ObserveCatalogRefresh(time.Second, errors.New("boom"))

	family := findFamily(t, registry, "toolusage_catalog_refresh_duration_seconds")
	counts := map[string]uint64{}
	for _, metric := range family.GetMetric() {
		counts[labelValue(metric, "status")] = metric.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(1), counts["success"])
	assert.Equal(t, uint64(2), counts["error"])
}

func TestPrometheusMetrics_CategoryUsageGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)

	m.SetCategoryUsage("enabled-listed", 2)
	m.SetCategoryUsage("enabled-listed", 5)

	family := findFamily(t, registry, "toolusage_category_tools")
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, "enabled-listed", labelValue(family.GetMetric()[0], "category"))
	assert.Equal(t, float64(5), family.GetMetric()[0].GetGauge().GetValue())
}

func findFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}
