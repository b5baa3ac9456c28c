// Package testhelpers provides shared utilities for testing scout
package testhelpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Tree builds a fixture directory tree under t.TempDir(). Every method fails
// the test on error and returns the tree for chaining.
//
//	tree := testhelpers.NewTree(t).
//		File("src/app.ts", "export {}").
//		SizedFile("src/huge.ts", 11<<20).
//		Unreadable("src/locked.ts")
type Tree struct {
	t    *testing.T
	Root string
}

// NewTree creates an empty tree rooted at a fresh temporary directory. The
// root is symlink-resolved so paths compare equal to walker output.
func NewTree(t *testing.T) *Tree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &Tree{t: t, Root: root}
}

// Path returns the absolute path of a slash-separated relative path.
func (tr *Tree) Path(rel string) string {
	return filepath.Join(tr.Root, filepath.FromSlash(rel))
}

// Dir creates a directory and its parents.
func (tr *Tree) Dir(rel string) *Tree {
	tr.t.Helper()
	require.NoError(tr.t, os.MkdirAll(tr.Path(rel), 0o755))
	return tr
}

// File writes content to rel, creating parent directories.
func (tr *Tree) File(rel, content string) *Tree {
	tr.t.Helper()
	path := tr.Path(rel)
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tr.t, os.WriteFile(path, []byte(content), 0o644))
	return tr
}

// Files writes each rel path with a one-line placeholder body.
func (tr *Tree) Files(rels ...string) *Tree {
	tr.t.Helper()
	for _, rel := range rels {
		tr.File(rel, "// "+filepath.Base(rel)+"\n")
	}
	return tr
}

// SizedFile creates a sparse file of exactly size bytes.
func (tr *Tree) SizedFile(rel string, size int64) *Tree {
	tr.t.Helper()
	path := tr.Path(rel)
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(tr.t, err)
	require.NoError(tr.t, f.Truncate(size))
	require.NoError(tr.t, f.Close())
	return tr
}

// Symlink creates link pointing at target. A target that is not absolute is
// taken relative to the tree root and stored as an absolute link.
func (tr *Tree) Symlink(target, link string) *Tree {
	tr.t.Helper()
	if !filepath.IsAbs(target) {
		target = tr.Path(target)
	}
	path := tr.Path(link)
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tr.t, os.Symlink(target, path))
	return tr
}

// Unreadable makes an existing file or directory inaccessible. Permissions
// are restored on cleanup so t.TempDir can remove the tree.
func (tr *Tree) Unreadable(rel string) *Tree {
	tr.t.Helper()
	path := tr.Path(rel)
	info, err := os.Stat(path)
	require.NoError(tr.t, err)
	require.NoError(tr.t, os.Chmod(path, 0))
	tr.t.Cleanup(func() { _ = os.Chmod(path, info.Mode().Perm()) })
	return tr
}

// Deep creates a chain of n nested directories below rel and returns the
// slash-separated path of the deepest one.
func (tr *Tree) Deep(rel string, n int) string {
	tr.t.Helper()
	parts := make([]string, 0, n+1)
	if rel != "" {
		parts = append(parts, rel)
	}
	for i := 0; i < n; i++ {
		parts = append(parts, "d")
	}
	deepest := strings.Join(parts, "/")
	tr.Dir(deepest)
	return deepest
}

// SkipIfRoot skips tests that rely on permission denial, which root bypasses.
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}
}
