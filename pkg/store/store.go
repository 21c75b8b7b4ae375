package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/models"
)

// Store persists the entire chat state as a single JSON document. Every
// mutation rewrites the document wholesale; there is no incremental or
// append format. The Store provides no locking, versioning, or transaction
// id — two interleaved load/save cycles can lose one writer's change
// (last-write-wins on the full snapshot). Concurrency discipline is the
// caller's responsibility.
type Store struct {
	path string
}

// DefaultSnapshot returns the seed state written on first access: one fixed
// user, empty message list.
func DefaultSnapshot() models.Snapshot {
	return models.Snapshot{
		Users: []models.User{
			{ID: "1", Username: "testuser", Password: "testpass123"},
		},
		Messages: []models.Message{},
	}
}

// Open prepares the store at path, creating the parent directory and a
// seeded document if none exists yet.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty store path")
	}
	s := &Store{path: path}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !s.Save(DefaultSnapshot()) {
			return nil, fmt.Errorf("seed store file: %s", path)
		}
		logger.Info("store_seeded", "path", path)
	}
	return s, nil
}

// Path returns the location of the persisted document.
func (s *Store) Path() string { return s.path }

// Load returns the current snapshot. A missing, unreadable, or corrupt
// document yields the default snapshot instead of an error; the on-disk
// file is left untouched. Degraded reads favor availability over strict
// durability.
func (s *Store) Load() models.Snapshot {
	b, err := os.ReadFile(s.path)
	if err != nil {
		logger.Error("store_read_failed", "path", s.path, "error", err)
		loadTotal.WithLabelValues("degraded").Inc()
		return DefaultSnapshot()
	}
	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		logger.Error("store_parse_failed", "path", s.path, "error", err)
		loadTotal.WithLabelValues("degraded").Inc()
		return DefaultSnapshot()
	}
	loadTotal.WithLabelValues("ok").Inc()
	return snap
}

// Save serializes snap and replaces the persisted copy. The document is
// written to a temp file and renamed into place so readers never observe a
// torn write; the snapshot-level last-write-wins hazard remains. Returns
// false when the write did not take effect.
func (s *Store) Save(snap models.Snapshot) bool {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		logger.Error("store_marshal_failed", "path", s.path, "error", err)
		saveTotal.WithLabelValues("error").Inc()
		return false
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".chatrelay-*.json")
	if err != nil {
		logger.Error("store_write_failed", "path", s.path, "error", err)
		saveTotal.WithLabelValues("error").Inc()
		return false
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		logger.Error("store_write_failed", "path", s.path, "error", err)
		saveTotal.WithLabelValues("error").Inc()
		return false
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		logger.Error("store_write_failed", "path", s.path, "error", err)
		saveTotal.WithLabelValues("error").Inc()
		return false
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		logger.Error("store_replace_failed", "path", s.path, "error", err)
		saveTotal.WithLabelValues("error").Inc()
		return false
	}
	saveTotal.WithLabelValues("ok").Inc()
	return true
}
