package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads the failed-test cache.
func (s *JSONStorage) Load() ([]string, error) {
	path := s.cfg.GetFailedTestsPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read failed tests: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse failed tests %s: %w", path, err)
	}
	return ids, nil
}

// Save writes ids to the failed-test cache, replacing its previous content.
func (s *JSONStorage) Save(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal failed tests: %w", err)
	}

	path := s.cfg.GetFailedTestsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write failed tests: %w", err)
	}
	return nil
}

// Clear deletes the failed-test cache if present.
func (s *JSONStorage) Clear() error {
	err := os.Remove(s.cfg.GetFailedTestsPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove failed tests: %w", err)
	}
	return nil
}
