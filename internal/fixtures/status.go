package fixtures

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"lukechampine.com/blake3"

	"testbackend/internal/config"
)

// Status decides whether the test template database is current
type Status struct {
	config *config.Config
	fsys   fs.FS
	db     DatabaseChecker
}

// NewStatus creates a Status over the project tree fsys. db may be nil, in
// which case database existence is not checked.
func NewStatus(cfg *config.Config, fsys fs.FS, db DatabaseChecker) *Status {
	return &Status{config: cfg, fsys: fsys, db: db}
}

// Digest hashes the files the template database is built from
func (s *Status) Digest() (string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range s.config.FixtureGlobs {
		matches, err := doublestar.Glob(s.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return "", fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)

	h := blake3.New(32, nil)
	for _, f := range files {
		content, err := fs.ReadFile(s.fsys, f)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f, err)
		}
		h.Write([]byte(f))
		h.Write([]byte{0})
		h.Write(content)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fresh reports whether the template database matches the current sources.
// The returned reason explains a stale result.
func (s *Status) Fresh(ctx context.Context) (bool, string, error) {
	digest, err := s.Digest()
	if err != nil {
		return false, "", err
	}

	recorded, err := os.ReadFile(s.config.GetTemplateStatusPath())
	if errors.Is(err, fs.ErrNotExist) {
		return false, "template database was never built", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read template status: %w", err)
	}
	if strings.TrimSpace(string(recorded)) != digest {
		return false, "migrations or fixture sources changed", nil
	}

	if s.db != nil {
		exists, err := s.db.Exists(ctx, s.config.TemplateDatabase)
		if err != nil {
			return false, "", err
		}
		if !exists {
			return false, fmt.Sprintf("database %s does not exist", s.config.TemplateDatabase), nil
		}
	}
	return true, "", nil
}

// Record stores digest as the state the template database was built from
func (s *Status) Record(digest string) error {
	path := s.config.GetTemplateStatusPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}
	return os.WriteFile(path, []byte(digest+"\n"), 0644)
}
