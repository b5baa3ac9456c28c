// Package classifier maps file names to a coarse category and a language tag.
//
// A Classifier owns a read-only copy of its lookup table; there is no
// package-level mutable state, so instances never influence each other.
package classifier

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/scout/internal/types"
)

// Entry is the classification for one extension or file name.
type Entry struct {
	Category types.Category
	Language string
}

// Table is the lookup data for a Classifier. Extensions are keyed with the
// leading dot (".go"); Names are full base names ("Dockerfile"). Keys are
// matched case-insensitively.
type Table struct {
	Extensions map[string]Entry
	Names      map[string]Entry
}

// Classifier is a pure, total classification function over file names.
type Classifier struct {
	extensions map[string]Entry
	names      map[string]Entry
}

// New creates a classifier over a private copy of table.
func New(table Table) *Classifier {
	c := &Classifier{
		extensions: make(map[string]Entry, len(table.Extensions)),
		names:      make(map[string]Entry, len(table.Names)),
	}
	for k, v := range table.Extensions {
		c.extensions[strings.ToLower(k)] = v
	}
	for k, v := range table.Names {
		c.names[strings.ToLower(k)] = v
	}
	return c
}

// Default creates a classifier over DefaultTable.
func Default() *Classifier {
	return New(DefaultTable())
}

// Classify returns the category of a file name or path. Any name containing
// "test" or "spec" (case-insensitive) is a test file, regardless of its
// extension. Unknown names are CategoryOther.
func (c *Classifier) Classify(name string) types.Category {
	base := strings.ToLower(filepath.Base(name))
	if strings.Contains(base, "test") || strings.Contains(base, "spec") {
		return types.CategoryTest
	}
	if e, ok := c.lookup(base); ok {
		return e.Category
	}
	return types.CategoryOther
}

// Language returns the language tag for a file name, or "" when unknown.
// Test files keep the language of their extension.
func (c *Classifier) Language(name string) string {
	if e, ok := c.lookup(strings.ToLower(filepath.Base(name))); ok {
		return e.Language
	}
	return ""
}

// Describe builds a FileInfo for a walked file.
func (c *Classifier) Describe(path string, size int64) types.FileInfo {
	return types.FileInfo{
		Path:      path,
		SizeBytes: size,
		Extension: Extension(path),
		Category:  c.Classify(path),
		Language:  c.Language(path),
	}
}

func (c *Classifier) lookup(base string) (Entry, bool) {
	if e, ok := c.names[base]; ok {
		return e, true
	}
	if e, ok := c.extensions[filepath.Ext(base)]; ok {
		return e, true
	}
	return Entry{}, false
}

// Extension returns the lower-cased extension of path, or the base name for
// extensionless files such as Makefile, so every file lands in a bucket.
func Extension(path string) string {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" || ext == strings.ToLower(base) {
		return base
	}
	return ext
}
