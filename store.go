package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
)

// ConfigStore owns the filter configuration file. All mutations go through
// Update, which re-reads the file, applies the mutation and saves atomically
// under one lock, so two racing writers (a reviewer confirmation and an admin
// command) cannot lose each other's list changes. Readers get a cached clone
// via Snapshot.
type ConfigStore struct {
	path string

	mu    sync.Mutex
	cache *FilterConfig
}

func NewConfigStore(basePath string) (*ConfigStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("path", basePath).Wrapf(err, "failed to create config directory")
	}
	return &ConfigStore{path: filepath.Join(basePath, "filter.json")}, nil
}

// Snapshot returns an immutable copy of the current configuration, reading
// the file lazily on first access.
func (s *ConfigStore) Snapshot() (FilterConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		cfg, err := s.load()
		if err != nil {
			return FilterConfig{}, err
		}
		s.cache = &cfg
	}
	return s.cache.Clone(), nil
}

// Update applies mutate under the store lock: read fresh from disk, mutate,
// save atomically, refresh the cache. The Version field is bumped on every
// successful save. When mutate returns an error nothing is written and the
// last good state remains in place.
func (s *ConfigStore) Update(mutate func(cfg *FilterConfig) error) (FilterConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return FilterConfig{}, err
	}

	if err := mutate(&cfg); err != nil {
		return FilterConfig{}, err
	}

	cfg.Version++
	if err := s.save(cfg); err != nil {
		return FilterConfig{}, err
	}

	s.cache = &cfg
	return cfg.Clone(), nil
}

func (s *ConfigStore) load() (FilterConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return FilterConfig{}, nil
		}
		return FilterConfig{}, oops.With("path", s.path).Wrapf(err, "failed to read filter config")
	}

	var cfg FilterConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return FilterConfig{}, oops.With("path", s.path).Wrapf(err, "failed to unmarshal filter config")
	}
	return cfg, nil
}

// save writes through a temp file and renames it so a concurrent load never
// observes a half-written config.
func (s *ConfigStore) save(cfg FilterConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return oops.Wrapf(err, "failed to marshal filter config")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return oops.With("path", tmp).Wrapf(err, "failed to write filter config")
	}
	return os.Rename(tmp, s.path)
}
