package scanner

import (
	"fmt"
	"os"
	"path/filepath"
)

// SkipFunc reports whether a path (relative to the walk root) should be pruned.
type SkipFunc func(rel string, isDir bool) bool

// Walk returns every file beneath root, depth first.
// Any directory that cannot be listed aborts the whole walk.
func Walk(root string) ([]string, error) {
	return WalkFiltered(root, nil)
}

// WalkFiltered is Walk with an optional pruning predicate.
func WalkFiltered(root string, skip SkipFunc) ([]string, error) {
	return walkDir(root, root, skip)
}

func walkDir(root, dir string, skip SkipFunc) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		isDir := entryIsDir(path, entry)

		if skip != nil {
			rel, err := filepath.Rel(root, path)
			if err == nil && skip(rel, isDir) {
				continue
			}
		}

		if isDir {
			sub, err := walkDir(root, path, skip)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// entryIsDir follows symlinks, so a link to a directory is descended into.
func entryIsDir(path string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
