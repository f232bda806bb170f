package sink

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"toolusage/internal/domain"
)

// MetricsSink exports report summaries as Prometheus metrics.
type MetricsSink struct {
	reports      prometheus.Counter
	lastReport   prometheus.Gauge
	tools        prometheus.Gauge
	categoryUses *prometheus.GaugeVec
}

func NewMetricsSink(registerer prometheus.Registerer) *MetricsSink {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &MetricsSink{
		reports: factory.NewCounter(prometheus.CounterOpts{
			Name: "toolusage_reports_total",
			Help: "Usage reports recorded",
		}),
		lastReport: factory.NewGauge(prometheus.GaugeOpts{
			Name: "toolusage_last_report_timestamp_seconds",
			Help: "Unix time of the last recorded usage report",
		}),
		tools: factory.NewGauge(prometheus.GaugeOpts{
			Name: "toolusage_workspace_tools",
			Help: "Tool states in the last recorded report",
		}),
		categoryUses: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "toolusage_report_category_usages",
			Help: "Distinct usage ids per category in the last recorded report",
		}, []string{"category", "group_id"}),
	}
}

func (s *MetricsSink) Record(_ context.Context, report domain.UsageReport) error {
	s.reports.Inc()
	s.lastReport.Set(float64(report.CollectedAt.Unix()))
	s.tools.Set(float64(report.ToolCount))
	for _, category := range report.Categories {
		s.categoryUses.WithLabelValues(category.Name, category.GroupID).Set(float64(len(category.Usages)))
	}
	return nil
}

var _ domain.UsageSink = (*MetricsSink)(nil)
