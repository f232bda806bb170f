package domain

import "time"

// RefreshScheduleOutcome describes what happened when a refresh was requested.
type RefreshScheduleOutcome string

const (
	// RefreshScheduled indicates a background refresh was handed to the executor.
	RefreshScheduled RefreshScheduleOutcome = "scheduled"
	// RefreshInFlight indicates a refresh was already outstanding.
	RefreshInFlight RefreshScheduleOutcome = "in_flight"
	// RefreshRejected indicates the executor refused the task.
	RefreshRejected RefreshScheduleOutcome = "rejected"
)

// CatalogReadSource labels where a membership query got its snapshot from.
type CatalogReadSource string

const (
	CatalogReadFresh  CatalogReadSource = "fresh"
	CatalogReadCached CatalogReadSource = "cached"
	CatalogReadStale  CatalogReadSource = "stale"
)

// Metrics records operational metrics for catalog caching and usage collection.
type Metrics interface {
	ObserveCatalogRead(source CatalogReadSource)
	ObserveRefreshSchedule(outcome RefreshScheduleOutcome)
	ObserveCatalogRefresh(duration time.Duration, err error)
	SetCatalogSize(count int)
	ObserveCollection(duration time.Duration, err error)
	SetCategoryUsage(category string, count int)
}
