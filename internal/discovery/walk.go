package discovery

import (
	"errors"
	"io/fs"
	"path"
	"strings"
)

// visitFunc receives the regular files of one directory. Returning true stops the walk.
type visitFunc func(dir string, files []fs.DirEntry) (bool, error)

// walkTree visits root and every directory below it. Entries are taken in
// fs.ReadDir (lexical) order. With bottomUp set, a directory's subdirectories
// are visited before the directory itself, otherwise after it.
// A missing root is treated as an empty tree.
func (r *Resolver) walkTree(root string, bottomUp bool, visit visitFunc) (bool, error) {
	if _, err := fs.Stat(r.fsys, root); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return r.walkDir(root, bottomUp, visit)
}

func (r *Resolver) walkDir(dir string, bottomUp bool, visit visitFunc) (bool, error) {
	entries, err := fs.ReadDir(r.fsys, dir)
	if err != nil {
		return false, err
	}

	var files, dirs []fs.DirEntry
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e)
			continue
		}
		name := e.Name()
		// Skip hidden directories (starting with .)
		if strings.HasPrefix(name, ".") || r.skipDirs[name] {
			continue
		}
		dirs = append(dirs, e)
	}

	if !bottomUp {
		if done, err := visit(dir, files); done || err != nil {
			return done, err
		}
	}
	for _, d := range dirs {
		if done, err := r.walkDir(path.Join(dir, d.Name()), bottomUp, visit); done || err != nil {
			return done, err
		}
	}
	if bottomUp {
		return visit(dir, files)
	}
	return false, nil
}
