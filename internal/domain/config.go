package domain

import "time"

// Config is the normalized application configuration.
type Config struct {
	Workspace       string              `validate:"required"`
	ProfilePath     string              `validate:"required"`
	PluginsRoot     string              `validate:"required"`
	Catalog         CatalogConfig       `validate:"required"`
	CollectInterval time.Duration       `validate:"gt=0"`
	Observability   ObservabilityConfig `validate:"required"`
}

// CatalogConfig configures the catalog source and membership cache.
type CatalogConfig struct {
	URL            string        `validate:"omitempty,url"`
	File           string        `validate:"omitempty"`
	CachePath      string        `validate:"required"`
	StaleAfter     time.Duration `validate:"gt=0"`
	CacheMaxAge    time.Duration `validate:"gte=0"`
	RefreshTimeout time.Duration `validate:"gte=0"`
	RefreshWorkers int           `validate:"gte=1,lte=16"`
}

// HasSource reports whether any catalog source is configured.
func (c CatalogConfig) HasSource() bool {
	return c.URL != "" || c.File != ""
}

// ObservabilityConfig configures the metrics and health endpoint.
type ObservabilityConfig struct {
	ListenAddress string `validate:"required,hostname_port"`
	Metrics       bool
	Healthz       bool
}
