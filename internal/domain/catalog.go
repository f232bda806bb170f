package domain

import (
	"context"
	"sort"
	"time"
)

// CatalogEntry is one plugin registered in the external catalog.
type CatalogEntry struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
}

// CatalogSnapshot is an immutable set of catalog plugin ids.
type CatalogSnapshot struct {
	ids       map[string]struct{}
	FetchedAt time.Time
}

// NewCatalogSnapshot copies ids into a new snapshot. Empty ids are dropped.
func NewCatalogSnapshot(ids []string, fetchedAt time.Time) *CatalogSnapshot {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return &CatalogSnapshot{ids: set, FetchedAt: fetchedAt}
}

// Contains reports whether id is registered. A nil snapshot contains nothing.
func (s *CatalogSnapshot) Contains(id string) bool {
	if s == nil || id == "" {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of registered ids.
func (s *CatalogSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the registered ids in sorted order.
func (s *CatalogSnapshot) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Stale reports whether the snapshot is older than window at now.
// A nil snapshot is always stale.
func (s *CatalogSnapshot) Stale(now time.Time, window time.Duration) bool {
	if s == nil {
		return true
	}
	return now.Sub(s.FetchedAt) > window
}

// CatalogIDs extracts the non-empty ids of entries.
func CatalogIDs(entries []CatalogEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			continue
		}
		ids = append(ids, entry.ID)
	}
	return ids
}

// CatalogFetcher supplies catalog contents to the membership cache.
type CatalogFetcher interface {
	// Cached returns a previously fetched catalog without blocking on the network.
	Cached(ctx context.Context) ([]string, bool)
	// Fetch loads the catalog from its source. It may block.
	Fetch(ctx context.Context) ([]string, error)
}
