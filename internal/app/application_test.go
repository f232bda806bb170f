package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"toolusage/internal/app/usage"
	"toolusage/internal/domain"
)

const testProfile = `
plugins:
  - id: core
    path: dist/core
    bundled: true
  - id: com.lint
    path: com.lint
tools:
  - id: Unused
    language: go
    plugin: core
    enabled: true
  - id: Style
    language: go
    plugin: com.lint
    enabled: true
`

func newTestConfig(t *testing.T, withCatalog bool) domain.Config {
	t.Helper()
	ws := t.TempDir()
	stateDir := filepath.Join(ws, domain.DefaultConfigDirName)
	pluginsRoot := filepath.Join(stateDir, domain.DefaultPluginsDirName)
	require.NoError(t, os.MkdirAll(filepath.Join(pluginsRoot, "com.lint"), 0o755))
	profilePath := filepath.Join(stateDir, domain.DefaultProfileFileName)
	require.NoError(t, os.WriteFile(profilePath, []byte(testProfile), 0o600))

	cfg := domain.Config{
		Workspace:   ws,
		ProfilePath: profilePath,
		PluginsRoot: pluginsRoot,
		Catalog: domain.CatalogConfig{
			CachePath:      filepath.Join(stateDir, domain.DefaultCatalogCacheFileName),
			StaleAfter:     time.Hour,
			CacheMaxAge:    24 * time.Hour,
			RefreshTimeout: 5 * time.Second,
			RefreshWorkers: 1,
		},
		CollectInterval: time.Hour,
	}
	if withCatalog {
		catalogPath := filepath.Join(t.TempDir(), "catalog.json")
		require.NoError(t, os.WriteFile(catalogPath, []byte(`{"plugins":[{"id":"com.lint","version":"1.0.0"}]}`), 0o600))
		cfg.Catalog.File = catalogPath
	}
	return cfg
}

func newTestApplication(t *testing.T, cfg domain.Config) *Application {
	t.Helper()
	application, cleanup, err := InitializeApplication(context.Background(), cfg, LoggingConfig{})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return application
}

func TestApplication_CollectWaitsForCatalog(t *testing.T) {
	application := newTestApplication(t, newTestConfig(t, true))

	report, err := application.Collect(context.Background(), CollectOptions{WaitCatalog: true})
	require.NoError(t, err)
	require.Equal(t, 2, report.ToolCount)
	require.Equal(t, 1, report.CatalogSize)

	listed, ok := report.Category(usage.CategoryEnabledListed)
	require.True(t, ok)
	require.Equal(t, []string{"go.com.lint.Style"}, listed.Usages.IDs())
	bundled, ok := report.Category(usage.CategoryEnabledBundled)
	require.True(t, ok)
	require.Equal(t, []string{"go.Unused"}, bundled.Usages.IDs())

	status := application.CatalogStatus()
	require.Equal(t, []string{"com.lint"}, status.PluginIDs)
	require.NotNil(t, status.StoredAt)
	require.False(t, status.Stale)
}

func TestApplication_CollectWithoutWaitingRefreshesInBackground(t *testing.T) {
	application := newTestApplication(t, newTestConfig(t, true))

	report, err := application.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)
	listed, ok := report.Category(usage.CategoryAllListed)
	require.True(t, ok)
	require.Empty(t, listed.Usages)

	require.Eventually(t, func() bool {
		return application.cache.Snapshot() != nil
	}, 2*time.Second, 10*time.Millisecond)

	usages, err := application.Usages(context.Background(), usage.CategoryAllListed, CollectOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"go.com.lint.Style"}, usages.IDs())
}

func TestApplication_UsesStoredCatalogAcrossRuns(t *testing.T) {
	cfg := newTestConfig(t, true)
	first, cleanup, err := InitializeApplication(context.Background(), cfg, LoggingConfig{})
	require.NoError(t, err)
	_, err = first.RefreshCatalog(context.Background())
	require.NoError(t, err)
	cleanup()

	cfg.Catalog.File = ""
	second := newTestApplication(t, cfg)
	usages, err := second.Usages(context.Background(), usage.CategoryAllListed, CollectOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"go.com.lint.Style"}, usages.IDs())
}

func TestApplication_NoCatalogSource(t *testing.T) {
	application := newTestApplication(t, newTestConfig(t, false))

	_, err := application.RefreshCatalog(context.Background())
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	report, err := application.Collect(context.Background(), CollectOptions{WaitCatalog: true})
	require.NoError(t, err)
	require.Nil(t, report.CatalogFetchedAt)
	listed, _ := report.Category(usage.CategoryAllListed)
	require.Empty(t, listed.Usages)
}

func TestApplication_UnknownCategory(t *testing.T) {
	application := newTestApplication(t, newTestConfig(t, false))

	_, err := application.Usages(context.Background(), "nope", CollectOptions{WaitCatalog: true})
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeNotFound, code)
}

type channelSink chan domain.UsageReport

func (c channelSink) Record(_ context.Context, report domain.UsageReport) error {
	select {
	case c <- report:
	default:
	}
	return nil
}

func TestApplication_ServeCollectsOnStartAndProfileChange(t *testing.T) {
	cfg := newTestConfig(t, false)
	application := newTestApplication(t, cfg)
	reports := make(channelSink, 4)
	application.sink = reports

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx) }()

	select {
	case report := <-reports:
		require.Equal(t, 2, report.ToolCount)
		require.NotEmpty(t, report.RunID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected initial report")
	}

	require.Eventually(t, func() bool {
		_ = os.WriteFile(cfg.ProfilePath, []byte("tools:\n  - id: Only\n"), 0o600)
		select {
		case report := <-reports:
			return report.ToolCount == 1
		case <-time.After(300 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	health := application.health.Report()
	require.Equal(t, "ok", health.Status)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop")
	}
}
