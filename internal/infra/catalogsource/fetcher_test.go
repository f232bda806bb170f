package catalogsource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"toolusage/internal/domain"
	"toolusage/internal/infra/catalogstore"
)

type stubSource struct {
	entries []domain.CatalogEntry
	err     error
	calls   int
}

func (s *stubSource) Load(context.Context) ([]domain.CatalogEntry, error) {
	s.calls++
	return s.entries, s.err
}

func newTestStore(t *testing.T) *catalogstore.Store {
	t.Helper()
	store, err := catalogstore.OpenStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFetcher_CachedMissWhenStoreEmpty(t *testing.T) {
	fetcher := NewFetcher(FetcherOptions{Store: newTestStore(t), Logger: zap.NewNop()})

	_, ok := fetcher.Cached(context.Background())
	require.False(t, ok)
}

func TestFetcher_FetchWritesThrough(t *testing.T) {
	source := &stubSource{entries: []domain.CatalogEntry{{ID: "com.a"}, {ID: "com.b"}}}
	fetcher := NewFetcher(FetcherOptions{Source: source, Store: newTestStore(t), MaxAge: time.Hour})

	ids, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"com.a", "com.b"}, ids)

	cached, ok := fetcher.Cached(context.Background())
	require.True(t, ok)
	require.Equal(t, []string{"com.a", "com.b"}, cached)
	require.Equal(t, 1, source.calls)
}

func TestFetcher_CachedRespectsMaxAge(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save([]domain.CatalogEntry{{ID: "com.a"}}, now))

	fetcher := NewFetcher(FetcherOptions{Store: store, MaxAge: time.Hour})
	fetcher.now = func() time.Time { return now.Add(59 * time.Minute) }
	_, ok := fetcher.Cached(context.Background())
	require.True(t, ok)

	fetcher.now = func() time.Time { return now.Add(61 * time.Minute) }
	_, ok = fetcher.Cached(context.Background())
	require.False(t, ok)
}

func TestFetcher_FetchErrorKeepsStore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save([]domain.CatalogEntry{{ID: "kept"}}, time.Now()))

	fetcher := NewFetcher(FetcherOptions{Source: &stubSource{err: errors.New("offline")}, Store: store})
	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)

	cached, ok := fetcher.Cached(context.Background())
	require.True(t, ok)
	require.Equal(t, []string{"kept"}, cached)
}

func TestFetcher_NoSource(t *testing.T) {
	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	_, ok := NewFetcher(FetcherOptions{}).Cached(context.Background())
	require.False(t, ok)
}
