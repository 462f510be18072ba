// internal/state/registry.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/docchat/internal/types"
)

// RegistryStore is a JSON-file-backed document registry store.
// The full registry is stored as an ordered slice in documents.json so that
// Save can persist an exact snapshot and Load restores it verbatim, which is
// what the rollback path of document removal depends on.
type RegistryStore struct {
	root string
	mu   sync.RWMutex
}

// NewRegistryStore creates a file-backed RegistryStore rooted at the given directory.
func NewRegistryStore(root string) *RegistryStore {
	return &RegistryStore{root: root}
}

func (s *RegistryStore) path() string {
	return filepath.Join(s.root, "documents.json")
}

// Load reads the registry, returning an empty slice when none exists yet.
func (s *RegistryStore) Load(_ context.Context) ([]*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var docs []*types.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal registry: %w", err)
	}
	return docs, nil
}

// Save persists the registry, preserving document order.
func (s *RegistryStore) Save(_ context.Context, docs []*types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp registry: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp registry: %w", err)
	}
	return nil
}
