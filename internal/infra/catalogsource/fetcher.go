package catalogsource

import (
	"context"
	"time"

	"go.uber.org/zap"

	"toolusage/internal/domain"
	"toolusage/internal/infra/catalogstore"
)

// Store is the persistence the Fetcher keeps its on-disk copy in.
type Store interface {
	Save(entries []domain.CatalogEntry, fetchedAt time.Time) error
	Load() (catalogstore.StoredCatalog, bool, error)
}

// Fetcher implements domain.CatalogFetcher over a Source and a Store.
// Cached only reads the store; Fetch goes to the source and writes through to the store.
type Fetcher struct {
	source Source
	store  Store
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger
}

type FetcherOptions struct {
	Source Source
	Store  Store
	// MaxAge bounds how old a stored catalog may be to count as a cached hit. Zero disables the bound.
	MaxAge time.Duration
	Logger *zap.Logger
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source: opts.Source,
		store:  opts.Store,
		maxAge: opts.MaxAge,
		now:    time.Now,
		logger: logger.Named("catalog_fetcher"),
	}
}

func (f *Fetcher) Cached(_ context.Context) ([]string, bool) {
	stored, ok := f.Stored()
	if !ok {
		return nil, false
	}
	return domain.CatalogIDs(stored.Entries), true
}

// Stored returns the on-disk catalog when present and within MaxAge.
func (f *Fetcher) Stored() (catalogstore.StoredCatalog, bool) {
	if f.store == nil {
		return catalogstore.StoredCatalog{}, false
	}
	stored, ok, err := f.store.Load()
	if err != nil {
		f.logger.Debug("stored catalog unreadable", zap.Error(err))
		return catalogstore.StoredCatalog{}, false
	}
	if !ok {
		return catalogstore.StoredCatalog{}, false
	}
	if f.maxAge > 0 && f.now().Sub(stored.FetchedAt) > f.maxAge {
		return catalogstore.StoredCatalog{}, false
	}
	return stored, true
}

func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	if f.source == nil {
		return nil, domain.E(domain.CodeFailedPrecond, "catalog.fetch", "no catalog source configured", domain.ErrCatalogUnavailable)
	}
	entries, err := f.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if f.store != nil {
		if err := f.store.Save(entries, f.now()); err != nil {
			f.logger.Warn("persist catalog failed", zap.Error(err))
		}
	}
	return domain.CatalogIDs(entries), nil
}

var _ domain.CatalogFetcher = (*Fetcher)(nil)
