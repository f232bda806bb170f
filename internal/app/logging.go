package app

import (
	"go.uber.org/zap"

	"toolusage/internal/infra/telemetry"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	Logger *zap.Logger
}

// Logging bundles the application logger.
type Logging struct {
	Logger *zap.Logger
}

// NewLogging tags the base logger as core output.
func NewLogging(cfg LoggingConfig) Logging {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Logging{
		Logger: logger.With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCore)).Named("app"),
	}
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}
