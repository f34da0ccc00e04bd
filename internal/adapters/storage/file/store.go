// Package file persists conversations, plans and tasks as JSON documents
// on disk. Writes go to a temporary file first and are renamed into place,
// so concurrent readers never observe a partial record; a failed write
// leaves the previous version intact.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Store struct {
	base string

	// locks serializes access per document key. Guarded by mu for
	// lookup/insert only.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(base string) (*Store, error) {
	for _, dir := range []string{"conversations", "plans", "tasks"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating storage dir: %w", err)
		}
	}
	return &Store{
		base:  base,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Store) dropLock(key string) {
	s.mu.Lock()
	delete(s.locks, key)
	s.mu.Unlock()
}

// saveDoc atomically writes v as JSON to path.
func (s *Store) saveDoc(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// loadDoc reads path into v, reporting whether the document exists.
func (s *Store) loadDoc(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func (s *Store) deleteDoc(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("deleting %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
