package coverage

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Allowlist expands targets (doublestar globs relative to fsys) and removes
// the exclusions. The result is sorted.
func Allowlist(fsys fs.FS, targets, exclusions []string) ([]string, error) {
	excluded := make(map[string]bool, len(exclusions))
	for _, e := range exclusions {
		excluded[normalize(e)] = true
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range targets {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if excluded[m] || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
