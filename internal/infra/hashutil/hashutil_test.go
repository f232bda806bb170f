package hashutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"toolusage/internal/domain"
)

func sampleReport(runID string, at time.Time, ids ...string) domain.UsageReport {
	return domain.UsageReport{
		RunID:       runID,
		Workspace:   "/ws",
		CollectedAt: at,
		ToolCount:   len(ids),
		Categories: []domain.CategoryUsage{
			{Name: "all-bundled", GroupID: "statistics.all.bundled.tools", Usages: domain.NewUsageSet(ids...)},
		},
	}
}

func TestReportETag_IgnoresRunIdentity(t *testing.T) {
	now := time.Now()
	a := ReportETag(nil, sampleReport("run-1", now, "go.A", "go.B"))
	b := ReportETag(nil, sampleReport("run-2", now.Add(time.Minute), "go.B", "go.A"))

	require.NotEmpty(t, a)
	require.Len(t, a, 64)
	require.Equal(t, a, b)
}

func TestReportETag_ChangesWithUsages(t *testing.T) {
	now := time.Now()
	a := ReportETag(nil, sampleReport("run", now, "go.A"))
	b := ReportETag(nil, sampleReport("run", now, "go.A", "go.B"))
	require.NotEqual(t, a, b)
}

func TestCatalogETag(t *testing.T) {
	require.Equal(t, CatalogETag(nil, []string{"a", "b"}), CatalogETag(nil, []string{"a", "b"}))
	require.NotEqual(t, CatalogETag(nil, []string{"a"}), CatalogETag(nil, []string{"a", "b"}))
}
