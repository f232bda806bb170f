// Package catalogstore persists the last fetched plugin catalog on disk.
package catalogstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"toolusage/internal/domain"
)

const (
	rootBucketName    = "catalog"
	metaBucketName    = "meta"
	entriesBucketName = "entries"
	fetchedAtKey      = "fetched_at"
	schemaVersionKey  = "schema_version"
	schemaVersion     = 1
)

var ErrStoreClosed = errors.New("catalog store is closed")

// StoredCatalog is the catalog contents as last persisted.
type StoredCatalog struct {
	Entries   []domain.CatalogEntry
	FetchedAt time.Time
}

type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

func OpenStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("catalog cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog cache dir: %w", err)
	}
	options := &bolt.Options{Timeout: time.Second}
	db, err := bolt.Open(trimmed, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open catalog cache: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: trimmed}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Save replaces the stored catalog in a single transaction.
func (s *Store) Save(entries []domain.CatalogEntry, fetchedAt time.Time) error {
	return s.update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucketName))
		if root == nil {
			return fmt.Errorf("missing root bucket")
		}
		if root.Bucket([]byte(entriesBucketName)) != nil {
			if err := root.DeleteBucket([]byte(entriesBucketName)); err != nil {
				return fmt.Errorf("clear entries: %w", err)
			}
		}
		bucket, err := root.CreateBucket([]byte(entriesBucketName))
		if err != nil {
			return fmt.Errorf("create entries bucket: %w", err)
		}
		for _, entry := range entries {
			if entry.ID == "" {
				continue
			}
			raw, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("encode entry %q: %w", entry.ID, err)
			}
			if err := bucket.Put([]byte(entry.ID), raw); err != nil {
				return fmt.Errorf("write entry %q: %w", entry.ID, err)
			}
		}
		meta := root.Bucket([]byte(metaBucketName))
		if meta == nil {
			return fmt.Errorf("missing meta bucket")
		}
		return meta.Put([]byte(fetchedAtKey), []byte(fetchedAt.UTC().Format(time.RFC3339Nano)))
	})
}

// Load returns the stored catalog. ok is false when nothing was saved yet.
func (s *Store) Load() (StoredCatalog, bool, error) {
	var stored StoredCatalog
	found := false
	err := s.view(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucketName))
		if root == nil {
			return fmt.Errorf("missing root bucket")
		}
		meta := root.Bucket([]byte(metaBucketName))
		raw := meta.Get([]byte(fetchedAtKey))
		if raw == nil {
			return nil
		}
		fetchedAt, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return fmt.Errorf("decode fetched_at: %w", err)
		}
		stored.FetchedAt = fetchedAt
		found = true

		bucket := root.Bucket([]byte(entriesBucketName))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(key, value []byte) error {
			var entry domain.CatalogEntry
			if err := json.Unmarshal(value, &entry); err != nil {
				return fmt.Errorf("decode entry %q: %w", string(key), err)
			}
			stored.Entries = append(stored.Entries, entry)
			return nil
		})
	})
	if err != nil {
		return StoredCatalog{}, false, err
	}
	sort.Slice(stored.Entries, func(i, j int) bool {
		return stored.Entries[i].ID < stored.Entries[j].ID
	})
	return stored, found, nil
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}
