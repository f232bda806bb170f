package domain

import (
	"context"
	"encoding/json"
	"sort"
	"time"
)

// UsageDescriptor is the reporting identifier of one classified tool.
type UsageDescriptor struct {
	ID string `json:"id"`
}

// UsageSet is an unordered set of usage descriptors.
type UsageSet map[UsageDescriptor]struct{}

// NewUsageSet builds a set from ids, collapsing duplicates.
func NewUsageSet(ids ...string) UsageSet {
	set := make(UsageSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// Add inserts id into the set.
func (s UsageSet) Add(id string) {
	s[UsageDescriptor{ID: id}] = struct{}{}
}

// Has reports whether id is present.
func (s UsageSet) Has(id string) bool {
	_, ok := s[UsageDescriptor{ID: id}]
	return ok
}

// IDs returns the descriptor ids sorted for stable output.
func (s UsageSet) IDs() []string {
	out := make([]string, 0, len(s))
	for descriptor := range s {
		out = append(out, descriptor.ID)
	}
	sort.Strings(out)
	return out
}

func (s UsageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *UsageSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewUsageSet(ids...)
	return nil
}

// CategoryUsage is the result of one category query.
type CategoryUsage struct {
	Name    string   `json:"name"`
	GroupID string   `json:"groupId"`
	Usages  UsageSet `json:"usages"`
}

// UsageReport is one collection pass over a workspace.
type UsageReport struct {
	RunID            string          `json:"runId"`
	Workspace        string          `json:"workspace"`
	CollectedAt      time.Time       `json:"collectedAt"`
	CatalogFetchedAt *time.Time      `json:"catalogFetchedAt,omitempty"`
	CatalogSize      int             `json:"catalogSize"`
	ToolCount        int             `json:"toolCount"`
	Categories       []CategoryUsage `json:"categories"`
}

// Category returns the usage of the named category.
func (r UsageReport) Category(name string) (CategoryUsage, bool) {
	for _, usage := range r.Categories {
		if usage.Name == name {
			return usage, true
		}
	}
	return CategoryUsage{}, false
}

// UsageSink consumes usage reports.
type UsageSink interface {
	Record(ctx context.Context, report UsageReport) error
}
