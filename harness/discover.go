package harness

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Discover expands glob patterns (e.g. "t/**/*.t") relative to root into a
// sorted, deduplicated list of test file paths, the same doublestar.Glob
// shape used elsewhere in this codebase for matching a declared file
// pattern against a directory tree.
func Discover(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(os.DirFS(root), pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// findClosestMatch finds the closest fuzzy match to name among candidates,
// or "" if candidates is empty, for the "no such test file, did you
// mean...?" suggestion on an explicit but misspelled test name.
func findClosestMatch(name string, candidates []string) string {
	matches := fuzzy.RankFindNormalizedFold(name, candidates)
	sort.Sort(matches)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Target
}

// resolveExplicit validates an explicitly-named list of test files against
// disk, returning a "did you mean" suggestion in the error for any that
// don't exist, compared against siblings found under root.
func resolveExplicit(root string, names []string) ([]string, error) {
	siblings, err := Discover(root, []string{"**/*"})
	if err != nil {
		siblings = nil
	}

	resolved := make([]string, 0, len(names))
	for _, name := range names {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, name)
		}
		if _, err := os.Stat(path); err != nil {
			closest := findClosestMatch(name, siblings)
			if closest != "" {
				return nil, &noSuchTestError{name: name, suggestion: closest}
			}
			return nil, &noSuchTestError{name: name}
		}
		resolved = append(resolved, name)
	}
	return resolved, nil
}
