package catalogsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"toolusage/internal/domain"
)

const defaultRequestTimeout = 30 * time.Second

// HTTPSource fetches a JSON catalog and revalidates it with ETags.
// The payload is either an array of entries or an object with a "plugins" array.
type HTTPSource struct {
	url       string
	client    *http.Client
	userAgent string

	mu      sync.RWMutex
	etag    string
	entries []domain.CatalogEntry
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

func WithUserAgent(userAgent string) HTTPOption {
	return func(s *HTTPSource) {
		s.userAgent = userAgent
	}
}

func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:       strings.TrimSpace(url),
		client:    &http.Client{Timeout: defaultRequestTimeout},
		userAgent: "toolusage",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type catalogPayload struct {
	Plugins []domain.CatalogEntry `json:"plugins"`
}

func (s *HTTPSource) Load(ctx context.Context) ([]domain.CatalogEntry, error) {
	if s.url == "" {
		return nil, domain.E(domain.CodeFailedPrecond, "catalog.http", "catalog url is not configured", domain.ErrCatalogUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInvalidArgument, "catalog.http", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	s.mu.RLock()
	etag := s.etag
	s.mu.RUnlock()
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		s.mu.RLock()
		cached := s.entries
		s.mu.RUnlock()
		if cached != nil {
			return cloneEntries(cached), nil
		}
		return nil, unavailable(errors.New("catalog cache miss for 304 response"))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, unavailable(fmt.Errorf("unexpected status: %s", resp.Status))
	}

	entries, err := decodeJSONCatalog(json.NewDecoder(resp.Body))
	if err != nil {
		return nil, domain.E(domain.CodeUnavailable, "catalog.http", "decode catalog", err)
	}
	entries = normalizeEntries(entries)

	s.mu.Lock()
	s.etag = resp.Header.Get("ETag")
	s.entries = entries
	s.mu.Unlock()

	return cloneEntries(entries), nil
}

func decodeJSONCatalog(dec *json.Decoder) ([]domain.CatalogEntry, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var entries []domain.CatalogEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var payload catalogPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload.Plugins, nil
}

func unavailable(err error) error {
	e := domain.E(domain.CodeUnavailable, "catalog.http", err.Error(), errors.Join(domain.ErrCatalogUnavailable, err))
	e.Retryable = true
	return e
}

func cloneEntries(entries []domain.CatalogEntry) []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, len(entries))
	copy(out, entries)
	return out
}

var _ Source = (*HTTPSource)(nil)
