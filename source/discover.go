// Package source locates ontology documents on disk: discovery by pattern,
// watching a directory for changes, and refreshing documents from their
// published PURLs.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns the files under dir matching any include pattern and no
// exclude pattern, sorted. Patterns use doublestar syntax relative to dir.
func Discover(dir string, include, exclude []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat documents dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents dir %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]struct{})
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			excluded, err := matchAny(exclude, m)
			if err != nil {
				return nil, err
			}
			if !excluded {
				seen[m] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// Matches reports whether the slash-separated path rel, relative to the
// documents directory, would be selected by Discover.
func Matches(rel string, include, exclude []string) (bool, error) {
	in, err := matchAny(include, rel)
	if err != nil || !in {
		return false, err
	}
	out, err := matchAny(exclude, rel)
	return !out, err
}

func matchAny(patterns []string, name string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			return false, fmt.Errorf("match %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
