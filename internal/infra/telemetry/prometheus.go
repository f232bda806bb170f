package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"toolusage/internal/domain"
)

type PrometheusMetrics struct {
	catalogReads       *prometheus.CounterVec
	refreshSchedules   *prometheus.CounterVec
	refreshDuration    *prometheus.HistogramVec
	catalogSize        prometheus.Gauge
	collectionDuration *prometheus.HistogramVec
	categoryUsage      *prometheus.GaugeVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		catalogReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolusage_catalog_reads_total",
				Help: "Catalog membership snapshot reads by source",
			},
			[]string{"source"},
		),
		refreshSchedules: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolusage_catalog_refresh_requests_total",
				Help: "Background catalog refresh requests by outcome",
			},
			[]string{"outcome"},
		),
		refreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolusage_catalog_refresh_duration_seconds",
				Help:    "Duration of catalog fetches in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),
		catalogSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolusage_catalog_entries",
				Help: "Number of plugin ids in the current catalog snapshot",
			},
		),
		collectionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolusage_collection_duration_seconds",
				Help:    "Duration of usage collection passes in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"status"},
		),
		categoryUsage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "toolusage_category_tools",
				Help: "Number of distinct usage descriptors per category in the last collection",
			},
			[]string{"category"},
		),
	}
}

func (p *PrometheusMetrics) ObserveCatalogRead(source domain.CatalogReadSource) {
	p.catalogReads.WithLabelValues(string(source)).Inc()
}

func (p *PrometheusMetrics) ObserveRefreshSchedule(outcome domain.RefreshScheduleOutcome) {
	p.refreshSchedules.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusMetrics) ObserveCatalogRefresh(duration time.Duration, err error) {
	p.refreshDuration.WithLabelValues(statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) SetCatalogSize(count int) {
	p.catalogSize.Set(float64(count))
}

func (p *PrometheusMetrics) ObserveCollection(duration time.Duration, err error) {
	p.collectionDuration.WithLabelValues(statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) SetCategoryUsage(category string, count int) {
	p.categoryUsage.WithLabelValues(category).Set(float64(count))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
