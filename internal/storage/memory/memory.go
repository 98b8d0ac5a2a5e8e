// Package memory is an in-process ledger.Persister, optionally mirrored to a
// directory of JSON files.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type Store struct {
	mu   sync.Mutex
	dir  string
	data map[string][]byte
}

// New returns a store seeded with copies of the given values.
func New(seed map[string][]byte) *Store {
	s := &Store{data: make(map[string][]byte, len(seed))}
	for k, v := range seed {
		s.data[k] = clone(v)
	}
	return s
}

// NewFromFiles seeds the store from base/<key>.json files and writes every
// later Save back to the same place. A missing directory starts empty.
func NewFromFiles(base string) (*Store, error) {
	s := &Store{dir: base, data: map[string][]byte{}}
	entries, err := os.ReadDir(base)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		v, err := os.ReadFile(filepath.Join(base, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		s.data[e.Name()[:len(e.Name())-len(".json")]] = v
	}
	return s, nil
}

// Load implements ledger.Persister.
func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return clone(v), ok, nil
}

// Save implements ledger.Persister. With a backing directory the file is
// replaced atomically; the in-memory value is updated even if that fails.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(value)
	if s.dir == "" {
		return nil
	}
	return writeFile(filepath.Join(s.dir, key+".json"), value)
}

func writeFile(path string, value []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
