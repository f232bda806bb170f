package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent       = "event"
	FieldWorkspace   = "workspace"
	FieldCategory    = "category"
	FieldCatalogSize = "catalog_size"
	FieldDurationMs  = "duration_ms"
	FieldLogSource   = "log_source"
	FieldRunID       = "run_id"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
)

const (
	EventCatalogCachedRead       = "catalog_cached_read"
	EventCatalogRefreshScheduled = "catalog_refresh_scheduled"
	EventCatalogRefreshRejected  = "catalog_refresh_rejected"
	EventCatalogRefreshSuccess   = "catalog_refresh_success"
	EventCatalogRefreshFailure   = "catalog_refresh_failure"
	EventCanonicalizeFallback    = "canonicalize_fallback"
	EventCollectSuccess          = "collect_success"
	EventCollectFailure          = "collect_failure"
	EventProfileChanged          = "profile_changed"
)

const (
	LogSourceCore = "core"
	LogSourceCLI  = "cli"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func WorkspaceField(workspace string) zap.Field {
	return zap.String(FieldWorkspace, workspace)
}

func CategoryField(category string) zap.Field {
	return zap.String(FieldCategory, category)
}

func CatalogSizeField(size int) zap.Field {
	return zap.Int(FieldCatalogSize, size)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RunIDField(value string) zap.Field {
	return zap.String(FieldRunID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
