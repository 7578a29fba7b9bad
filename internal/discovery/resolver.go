package discovery

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const sourceSuffix = ".py"

// Resolver rewrites shorthand test arguments into dotted suite identifiers.
// All paths are relative to the root of fsys, which is the project root.
type Resolver struct {
	fsys     fs.FS
	testDir  string
	skipDirs map[string]bool
}

// NewResolver creates a Resolver searching testDir inside fsys
func NewResolver(fsys fs.FS, testDir string, skipDirs []string) *Resolver {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Resolver{
		fsys:     fsys,
		testDir:  path.Clean(strings.TrimPrefix(testDir, "./")),
		skipDirs: skipMap,
	}
}

// Resolve rewrites tokens in place and returns them. Each token maps to
// exactly one identifier; a shorthand that matches nothing is passed through
// unchanged for the runner to reject.
func (r *Resolver) Resolve(tokens []string) ([]string, error) {
	for i, token := range tokens {
		tokens[i] = toDotted(token)
	}

	for i, token := range tokens {
		if !startsUpper(token) {
			continue
		}
		key := "class " + token + "("
		if strings.Contains(token, "test_") {
			key = token
			if dot := strings.LastIndex(token, "."); dot >= 0 {
				key = token[:dot]
			}
		}
		file, err := r.findDeclaring(key)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", token, err)
		}
		if file != "" {
			tokens[i] = strings.TrimSuffix(file, sourceSuffix) + "." + token
		}
	}

	for i, token := range tokens {
		if !strings.HasPrefix(token, "test") {
			continue
		}
		file, err := r.findModule(token)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", token, err)
		}
		if file != "" {
			tokens[i] = file
		}
	}

	for i, token := range tokens {
		tokens[i] = toDotted(strings.TrimSuffix(token, sourceSuffix))
	}
	return tokens, nil
}

// findDeclaring returns the first source file, walking bottom-up, whose
// content contains key. Keys never span lines, so a whole-file search finds
// the same first file as a line-by-line one.
func (r *Resolver) findDeclaring(key string) (string, error) {
	var found string
	_, err := r.walkTree(r.testDir, true, func(dir string, files []fs.DirEntry) (bool, error) {
		for _, f := range files {
			if !isSourceFile(f.Name()) {
				continue
			}
			p := path.Join(dir, f.Name())
			content, err := fs.ReadFile(r.fsys, p)
			if err != nil {
				return false, err
			}
			if strings.Contains(string(content), key) {
				found = p
				return true, nil
			}
		}
		return false, nil
	})
	return found, err
}

// findModule returns the first file, walking top-down, named token or token.py
func (r *Resolver) findModule(token string) (string, error) {
	var found string
	_, err := r.walkTree(r.testDir, false, func(dir string, files []fs.DirEntry) (bool, error) {
		for _, f := range files {
			if f.Name() == token || f.Name() == token+sourceSuffix {
				found = path.Join(dir, f.Name())
				return true, nil
			}
		}
		return false, nil
	})
	return found, err
}

func toDotted(token string) string {
	return strings.ReplaceAll(strings.TrimRight(token, "/"), "/", ".")
}

func startsUpper(token string) bool {
	r, _ := utf8.DecodeRuneInString(token)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// isSourceFile skips editor backups and other files not starting with a letter or digit
func isSourceFile(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return false
	}
	return strings.HasSuffix(name, sourceSuffix)
}
