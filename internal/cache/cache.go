// Package cache persists resolved coding maps between runs as a JSON file
// keyed by coding-id string. Reads and writes are best-effort: a missing or
// corrupt file behaves as an empty cache.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Store is the narrow key-value surface the coding builder needs.
type Store interface {
	Get(id int) (map[string]string, bool)
	Put(id int, m map[string]string)
	Flush() error
}

// FileStore is a JSON-file backed Store. All entries are kept in memory
// between Open and Flush; Flush rewrites the whole file atomically.
type FileStore struct {
	path  string
	data  map[string]map[string]string
	dirty bool
}

// OpenFile loads the cache at path. Read failures degrade to an empty cache
// and are reported through the returned error while still yielding a usable
// store.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: map[string]map[string]string{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read cache: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = map[string]map[string]string{}
		return s, fmt.Errorf("parse cache: %w", err)
	}
	return s, nil
}

// Get returns the cached map for a coding id.
func (s *FileStore) Get(id int) (map[string]string, bool) {
	m, ok := s.data[strconv.Itoa(id)]
	return m, ok && len(m) > 0
}

// Put records a resolved map. Existing entries for other ids are retained,
// so one run never drops codings cached by another.
func (s *FileStore) Put(id int, m map[string]string) {
	s.data[strconv.Itoa(id)] = m
	s.dirty = true
}

// Flush writes the cache back to disk via a unique temp file renamed into
// place. A no-op when nothing changed.
func (s *FileStore) Flush() error {
	if !s.dirty {
		return nil
	}
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir cache dir: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write cache temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename cache: %w", err)
	}
	s.dirty = false
	return nil
}

// IDs lists the cached coding ids in unspecified order.
func (s *FileStore) IDs() []int {
	out := make([]int, 0, len(s.data))
	for k := range s.data {
		if id, err := strconv.Atoi(k); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// MemStore is an in-memory Store for tests and cache-less runs.
type MemStore struct {
	data map[int]map[string]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: map[int]map[string]string{}}
}

func (s *MemStore) Get(id int) (map[string]string, bool) {
	m, ok := s.data[id]
	return m, ok && len(m) > 0
}

func (s *MemStore) Put(id int, m map[string]string) { s.data[id] = m }

func (s *MemStore) Flush() error { return nil }
