package domain

import "time"

const (
	// CatalogStaleAfter is how long a fetched catalog is served before a refresh is scheduled.
	CatalogStaleAfter = time.Hour

	DefaultCatalogCacheMaxAgeSeconds  = 24 * 60 * 60
	DefaultCatalogRefreshTimeoutSecs  = 120
	DefaultCatalogRefreshWorkers      = 1
	DefaultCollectIntervalSeconds     = 300
	DefaultObservabilityListenAddress = "127.0.0.1:9464"
	DefaultConfigDirName              = ".toolusage"
	DefaultProfileFileName            = "profile.yaml"
	DefaultPluginsDirName             = "plugins"
	DefaultCatalogCacheFileName       = "catalog.db"

	// UnknownToolKind stands in for a tool without a language in usage identifiers.
	UnknownToolKind = "unknown"
)
