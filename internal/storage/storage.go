package storage

import (
	"testbackend/internal/config"
)

// Storage persists the suite identifiers that failed in the last run
type Storage interface {
	// Load returns the cached identifiers; a missing cache yields none.
	Load() ([]string, error)
	// Save overwrites the cache with ids.
	Save(ids []string) error
	// Clear removes the cache.
	Clear() error
}

// JSONStorage stores failed tests as a JSON array at the configured path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's failed-test cache path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
