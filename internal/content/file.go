package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/umnpray/umnpray/internal/models"
)

// FileStore serves spaces from a JSON array on disk
type FileStore struct {
	spaces []models.Space
	mu     sync.RWMutex
	loaded bool
}

// NewFileStore creates an empty file store
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads spaces from a JSON file, replacing any loaded before
func (s *FileStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading spaces file: %w", err)
	}

	var spaces []models.Space
	if err := json.Unmarshal(data, &spaces); err != nil {
		return fmt.Errorf("parsing spaces JSON: %w", err)
	}

	for i, sp := range spaces {
		if sp.ID == "" {
			return fmt.Errorf("space %d (%q) has no id", i, sp.Name)
		}
		if !sp.Campus.Valid() {
			return fmt.Errorf("space %s has unknown campus %q", sp.ID, sp.Campus)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces = spaces
	s.loaded = true
	return nil
}

// All returns a copy of every space in file order
func (s *FileStore) All(context.Context) ([]models.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.spaces), nil
}

// Get finds a space by slug or ID
func (s *FileStore) Get(_ context.Context, key string) (models.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.spaces, key)
}

// Count returns the number of loaded spaces
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.spaces)
}

// IsLoaded returns true if data has been loaded
func (s *FileStore) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
