// Package cachestore persists fetched datasets on disk, one file per cache
// key, so repeated requests for the same (source, params) never refetch.
//
// Entries live forever: there is no TTL and no eviction. Files may be
// deleted externally at any time; the worst case is that a future lookup
// is treated as a miss. Corrupt or unreadable entries are also misses,
// never errors.
package cachestore

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"climatefetcher/internal/dataset"
)

// Store is a content-addressed on-disk cache of serialized datasets.
// It is an explicit instance, not a singleton; tests point it at an
// isolated temporary directory.
type Store struct {
	dir string
	log *slog.Logger
}

// New creates the cache directory if needed and returns a Store over it
func New(dir string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the cache directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk location for a key
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".arrow")
}

// Lookup returns the cached dataset for key, if present and readable.
// It never fails: a missing, corrupt, or unreadable entry is reported
// as a miss, with corruption logged.
func (s *Store) Lookup(key string) (*dataset.Dataset, bool) {
	b, err := os.ReadFile(s.Path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("cache entry unreadable, treating as miss", "key", key, "error", err)
		}
		return nil, false
	}

	ds, err := dataset.Unmarshal(b)
	if err != nil {
		s.log.Warn("cache entry corrupt, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return ds, true
}

// Put writes the dataset under key. The write goes to a temp file in the
// cache directory and is renamed into place, so concurrent writers and
// abandoned in-flight writes never leave a half-written entry visible.
func (s *Store) Put(key string, ds *dataset.Dataset) error {
	b, err := ds.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
