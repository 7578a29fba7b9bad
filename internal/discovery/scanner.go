package discovery

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Scanner lists the test modules of a test source tree
type Scanner struct {
	fsys     fs.FS
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(fsys fs.FS, skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{fsys: fsys, skipDirs: skipMap}
}

// Scan finds all test modules (test_*.py) below root, in lexical walk order
func (s *Scanner) Scan(root string) ([]string, error) {
	root = path.Clean(strings.TrimPrefix(root, "./"))
	info, err := fs.Stat(s.fsys, root)
	if err != nil {
		return nil, fmt.Errorf("test path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test path is not a directory: %s", root)
	}

	var modules []string
	err = fs.WalkDir(s.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			// Skip hidden directories (starting with .)
			if p != root && (strings.HasPrefix(name, ".") || s.skipDirs[name]) {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), "test_") && strings.HasSuffix(d.Name(), sourceSuffix) {
			modules = append(modules, p)
		}
		return nil
	})

	return modules, err
}

// SuiteID converts a module path into its dotted suite identifier
func SuiteID(modulePath string) string {
	return toDotted(strings.TrimSuffix(modulePath, sourceSuffix))
}
