package usage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"toolusage/internal/domain"
	"toolusage/internal/infra/catalogcache"
)

type staticSource struct {
	states []domain.ToolState
	err    error
	calls  int
}

func (s *staticSource) ListToolStates(context.Context, string) ([]domain.ToolState, error) {
	s.calls++
	return s.states, s.err
}

type staticCatalog struct {
	listing catalogcache.Listing
	views   int
}

func (c *staticCatalog) View() catalogcache.Listing {
	c.views++
	return c.listing
}

type collectorFixture struct {
	root    string
	outside string
	source  *staticSource
	catalog *staticCatalog
	fetched time.Time
}

func newCollectorFixture(t *testing.T, catalogIDs ...string) *collectorFixture {
	t.Helper()
	base := t.TempDir()
	f := &collectorFixture{
		root:    filepath.Join(base, "plugins"),
		outside: filepath.Join(base, "elsewhere"),
		source:  &staticSource{},
		fetched: time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
	}
	f.catalog = &staticCatalog{
		listing: catalogcache.NewListing(domain.NewCatalogSnapshot(catalogIDs, f.fetched), f.root),
	}
	return f
}

func (f *collectorFixture) installed(id string) *domain.PluginDescriptor {
	return &domain.PluginDescriptor{ID: id, Path: filepath.Join(f.root, id)}
}

func (f *collectorFixture) foreign(id string) *domain.PluginDescriptor {
	return &domain.PluginDescriptor{ID: id, Path: filepath.Join(f.outside, id)}
}

func (f *collectorFixture) collector() *Collector {
	return NewCollector(CollectorOptions{Source: f.source, Catalog: f.catalog})
}

func TestCollector_Collect(t *testing.T) {
	f := newCollectorFixture(t, "com.lint", "com.fmt")
	bundled := &domain.PluginDescriptor{ID: "core", Bundled: true, Path: "/dist/core"}
	f.source.states = []domain.ToolState{
		{ToolID: "Unused", Language: "go", Origin: bundled, Enabled: true},
		{ToolID: "Shadow", Language: "go", Origin: bundled, EnabledByDefault: true},
		{ToolID: "Style", Language: "go", Origin: f.installed("com.lint"), Enabled: true},
		{ToolID: "Format", Origin: f.installed("com.fmt"), EnabledByDefault: true},
		{ToolID: "Rogue", Language: "go", Origin: f.foreign("com.lint"), Enabled: true},
		{ToolID: "Unlisted", Language: "go", Origin: f.installed("com.other"), Enabled: true},
		{ToolID: "Nowhere", Language: "go", Enabled: true},
	}

	report, err := f.collector().Collect(context.Background(), "/ws")
	require.NoError(t, err)
	require.Equal(t, 1, f.source.calls)
	require.Equal(t, 1, f.catalog.views)

	require.NotEmpty(t, report.RunID)
	require.Equal(t, "/ws", report.Workspace)
	require.Equal(t, 7, report.ToolCount)
	require.Equal(t, 2, report.CatalogSize)
	require.NotNil(t, report.CatalogFetchedAt)
	require.Equal(t, f.fetched, *report.CatalogFetchedAt)
	require.Len(t, report.Categories, 6)

	want := map[string][]string{
		CategoryAllBundled:      {"go.Shadow", "go.Unused"},
		CategoryAllListed:       {"go.com.lint.Style", "unknown.com.fmt.Format"},
		CategoryEnabledBundled:  {"go.Unused"},
		CategoryEnabledListed:   {"go.com.lint.Style"},
		CategoryDisabledBundled: {"go.Shadow"},
		CategoryDisabledListed:  {"unknown.com.fmt.Format"},
	}
	for name, ids := range want {
		usage, ok := report.Category(name)
		require.True(t, ok, name)
		require.Equal(t, ids, usage.Usages.IDs(), name)
	}
}

func TestCollector_Idempotent(t *testing.T) {
	f := newCollectorFixture(t, "com.lint")
	f.source.states = []domain.ToolState{
		{ToolID: "Style", Language: "go", Origin: f.installed("com.lint"), Enabled: true},
		{ToolID: "Unused", Language: "go", Origin: &domain.PluginDescriptor{ID: "core", Bundled: true}},
	}
	collector := f.collector()

	first, err := collector.Collect(context.Background(), "/ws")
	require.NoError(t, err)
	second, err := collector.Collect(context.Background(), "/ws")
	require.NoError(t, err)
	require.Equal(t, first.Categories, second.Categories)
	require.NotEqual(t, first.RunID, second.RunID)
}

func TestCollector_EmptyCatalog(t *testing.T) {
	f := newCollectorFixture(t)
	f.source.states = []domain.ToolState{
		{ToolID: "Style", Language: "go", Origin: f.installed("com.lint"), Enabled: true},
	}

	for _, name := range []string{CategoryAllListed, CategoryEnabledListed} {
		usages, err := f.collector().Usages(context.Background(), "/ws", name)
		require.NoError(t, err)
		require.Empty(t, usages)
	}
}

func TestCollector_OutsideRootNeverListed(t *testing.T) {
	f := newCollectorFixture(t, "com.lint")
	f.source.states = []domain.ToolState{
		{ToolID: "Rogue", Language: "go", Origin: f.foreign("com.lint"), Enabled: true},
		{ToolID: "Rogue", Language: "go", Origin: f.foreign("com.lint"), EnabledByDefault: true},
	}

	report, err := f.collector().Collect(context.Background(), "/ws")
	require.NoError(t, err)
	for _, name := range []string{CategoryAllListed, CategoryEnabledListed, CategoryDisabledListed} {
		usage, ok := report.Category(name)
		require.True(t, ok)
		require.Empty(t, usage.Usages, name)
	}
}

func TestCollector_NoCatalogSnapshot(t *testing.T) {
	f := newCollectorFixture(t)
	f.catalog.listing = catalogcache.NewListing(nil, f.root)
	f.source.states = []domain.ToolState{
		{ToolID: "Style", Language: "go", Origin: f.installed("com.lint")},
	}

	report, err := f.collector().Collect(context.Background(), "/ws")
	require.NoError(t, err)
	require.Nil(t, report.CatalogFetchedAt)
	require.Zero(t, report.CatalogSize)
}

func TestCollector_UnknownCategory(t *testing.T) {
	f := newCollectorFixture(t)
	_, err := f.collector().Usages(context.Background(), "/ws", "nope")
	require.ErrorIs(t, err, domain.ErrUnknownCategory)
	require.Zero(t, f.source.calls)
}

func TestCollector_SourceError(t *testing.T) {
	f := newCollectorFixture(t)
	f.source.err = errors.New("profile unreadable")

	_, err := f.collector().Collect(context.Background(), "/ws")
	require.EqualError(t, err, "profile unreadable")
}

func TestCollector_WithoutCollaborators(t *testing.T) {
	report, err := NewCollector(CollectorOptions{}).Collect(context.Background(), "/ws")
	require.NoError(t, err)
	require.Len(t, report.Categories, 6)
	for _, usage := range report.Categories {
		require.Empty(t, usage.Usages)
	}
}

func TestCollector_BundledAndListedOverlap(t *testing.T) {
	f := newCollectorFixture(t, "com.lint", "core")
	cases := []struct {
		name        string
		origin      *domain.PluginDescriptor
		wantBundled []string
		wantListed  []string
	}{
		{
			name:        "bundled plugin under root in catalog",
			origin:      &domain.PluginDescriptor{ID: "core", Path: filepath.Join(f.root, "core"), Bundled: true},
			wantBundled: []string{"go.Check"},
			wantListed:  []string{"go.core.Check"},
		},
		{
			name:        "bundled plugin under root not in catalog",
			origin:      &domain.PluginDescriptor{ID: "core.extra", Path: filepath.Join(f.root, "core.extra"), Bundled: true},
			wantBundled: []string{"go.Check"},
		},
		{
			name:        "bundled plugin outside root in catalog",
			origin:      &domain.PluginDescriptor{ID: "core", Path: filepath.Join(f.outside, "core"), Bundled: true},
			wantBundled: []string{"go.Check"},
		},
		{
			name:       "installed plugin in catalog",
			origin:     f.installed("com.lint"),
			wantListed: []string{"go.com.lint.Check"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f.source.states = []domain.ToolState{{ToolID: "Check", Language: "go", Origin: tc.origin, Enabled: true}}

			report, err := f.collector().Collect(context.Background(), "/ws")
			require.NoError(t, err)
			bundled, ok := report.Category(CategoryAllBundled)
			require.True(t, ok)
			listed, ok := report.Category(CategoryAllListed)
			require.True(t, ok)
			require.ElementsMatch(t, tc.wantBundled, bundled.Usages.IDs())
			require.ElementsMatch(t, tc.wantListed, listed.Usages.IDs())
		})
	}
}
