package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Dirs returns the existing directories that must be watched to see every
// file matching patterns. fsnotify is not recursive, so a "**" pattern
// yields its base directory and all directories below it.
func Dirs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		if info, err := os.Stat(d); err == nil && info.IsDir() && !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	for _, p := range patterns {
		base, rest := doublestar.SplitPattern(filepath.ToSlash(p))
		base = filepath.FromSlash(base)
		if !strings.Contains(rest, "**") {
			matches, err := doublestar.FilepathGlob(filepath.Dir(p))
			if err != nil {
				return nil, fmt.Errorf("glob %q: %w", p, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", base, err)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Match reports whether path matches any of patterns. No patterns match
// everything.
func Match(patterns []string, path string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.PathMatch(p, path); ok {
			return true
		}
	}
	return false
}
