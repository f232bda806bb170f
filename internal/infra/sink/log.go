package sink

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"toolusage/internal/domain"
	"toolusage/internal/infra/hashutil"
	"toolusage/internal/infra/telemetry"
)

// LogSink logs a summary line per report. Reports whose content matches the previous
// one are logged at debug level only.
type LogSink struct {
	logger *zap.Logger

	mu       sync.Mutex
	lastETag string
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("report")}
}

func (s *LogSink) Record(ctx context.Context, report domain.UsageReport) error {
	etag := hashutil.ReportETag(s.logger, report)

	s.mu.Lock()
	unchanged := etag != "" && etag == s.lastETag
	s.lastETag = etag
	s.mu.Unlock()

	fields := make([]zap.Field, 0, len(report.Categories)+4)
	if _, ok := telemetry.RunMetaFromContext(ctx); !ok && report.RunID != "" {
		fields = append(fields, telemetry.RunIDField(report.RunID))
	}
	fields = append(fields,
		telemetry.WorkspaceField(report.Workspace),
		telemetry.CatalogSizeField(report.CatalogSize),
		zap.String("etag", etag),
	)
	for _, category := range report.Categories {
		fields = append(fields, zap.Int(category.Name, len(category.Usages)))
	}
	logger := telemetry.LoggerWithRun(ctx, s.logger)
	if unchanged {
		logger.Debug("usage report unchanged", fields...)
		return nil
	}
	logger.Info("usage report", fields...)
	return nil
}

var _ domain.UsageSink = (*LogSink)(nil)
