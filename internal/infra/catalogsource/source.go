// Package catalogsource loads the external plugin catalog and keeps an on-disk copy of it.
package catalogsource

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"toolusage/internal/domain"
)

// Source loads catalog entries from their origin. Load may block on I/O.
type Source interface {
	Load(ctx context.Context) ([]domain.CatalogEntry, error)
}

// normalizeEntries trims ids, drops blanks and duplicates, canonicalizes
// semantic versions and clears versions that do not parse.
func normalizeEntries(entries []domain.CatalogEntry) []domain.CatalogEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		entry.ID = strings.TrimSpace(entry.ID)
		if entry.ID == "" {
			continue
		}
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		seen[entry.ID] = struct{}{}
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Version, _ = normalizeSemver(entry.Version)
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalizeSemver(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	if !strings.HasPrefix(value, "v") {
		value = "v" + value
	}
	normalized := semver.Canonical(value)
	if normalized == "" {
		return "", false
	}
	return normalized, true
}
