package explorer

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoredDirs are never descended into, at any depth.
var ignoredDirs = map[string]struct{}{
	"node_modules":     {},
	"bower_components": {},
	"jspm_packages":    {},
	"vendor":           {},
	"dist":             {},
	"build":            {},
	"out":              {},
	"target":           {},
	"coverage":         {},
	"htmlcov":          {},
	"__pycache__":      {},
	"venv":             {},
	"site-packages":    {},
	"DerivedData":      {},
}

// IsIgnoredDir reports whether a directory name is skipped by every walk:
// the fixed ignore set plus any dot directory (.git, .next, .venv...).
func IsIgnoredDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	_, ok := ignoredDirs[name]
	return ok
}

// matcher applies user include/exclude globs to root-relative slash paths.
type matcher struct {
	include []string
	exclude []string
}

func newMatcher(include, exclude []string) *matcher {
	return &matcher{include: include, exclude: exclude}
}

func (m *matcher) excluded(rel string, isDir bool) bool {
	for _, pattern := range m.exclude {
		if globMatch(pattern, rel) {
			return true
		}
		if isDir && globMatch(pattern, rel+"/") {
			return true
		}
	}
	return false
}

// included reports whether a file passes the include list. Patterns are
// tried against the relative path and the base name, so "*.go" works at any
// depth.
func (m *matcher) included(rel string) bool {
	if len(m.include) == 0 {
		return true
	}
	base := path.Base(rel)
	for _, pattern := range m.include {
		if globMatch(pattern, rel) || globMatch(pattern, base) {
			return true
		}
	}
	return false
}

// Invalid patterns never match
func globMatch(pattern, name string) bool {
	matched, err := doublestar.Match(pattern, name)
	return err == nil && matched
}
