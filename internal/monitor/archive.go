package monitor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// treeHasFiles reports whether any regular file remains under dir.
// Empty subdirectories do not count.
func treeHasFiles(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", dir, err)
	}
	return found, nil
}

// pruneSourceDir removes a drained source directory and any ancestor
// directories it leaves empty, stopping at the watch root.
func pruneSourceDir(dir, watchRoot string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("prune %s: %w", dir, err)
	}
	root := filepath.Clean(watchRoot)
	for current := filepath.Dir(filepath.Clean(dir)); ; current = filepath.Dir(current) {
		if current == root || !strings.HasPrefix(current+string(filepath.Separator), root+string(filepath.Separator)) {
			return nil
		}
		entries, err := os.ReadDir(current)
		if err != nil || len(entries) > 0 {
			return nil
		}
		if err := os.Remove(current); err != nil {
			return nil
		}
	}
}

// archiveSourceDir moves a source directory with leftover content to a
// sibling archive location, adding a numeric suffix when the first
// choice is taken. Returns the archive path.
func archiveSourceDir(dir string) (string, error) {
	base := filepath.Clean(dir) + ".archived"
	candidate := base
	for counter := 1; ; counter++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			break
		}
		candidate = fmt.Sprintf("%s.%d", base, counter)
	}
	if err := os.Rename(dir, candidate); err != nil {
		return "", fmt.Errorf("archive %s: %w", dir, err)
	}
	return candidate, nil
}
