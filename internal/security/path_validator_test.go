package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "github.com/standardbeagle/scout/internal/errors"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsSafeToRead(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	inside := writeFile(t, filepath.Join(root, "src", "main.go"), "package main\n")
	secret := writeFile(t, filepath.Join(outside, "secret.txt"), "hunter2\n")

	require.NoError(t, os.Symlink(secret, filepath.Join(root, "escape.txt")))
	require.NoError(t, os.Symlink(inside, filepath.Join(root, "alias.go")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "outdir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "src"), filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink("src/main.go", filepath.Join(root, "relative.go")))

	v := NewPathValidator()
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"file inside root", inside, true},
		{"symlink to file inside root", filepath.Join(root, "alias.go"), true},
		{"relative symlink inside root", filepath.Join(root, "relative.go"), true},
		{"absolute directory link inside root", filepath.Join(root, "linked"), true},
		{"file through directory link inside root", filepath.Join(root, "linked", "main.go"), true},
		{"symlink escaping root", filepath.Join(root, "escape.txt"), false},
		{"file through escaping directory link", filepath.Join(root, "outdir", "secret.txt"), false},
		{"file outside root", secret, false},
		{"dot-dot traversal", filepath.Join(root, "src", "..", "..", filepath.Base(outside), "secret.txt"), false},
		{"missing file", filepath.Join(root, "nope.go"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsSafeToRead(tt.path, root))
		})
	}
}

func TestIsSafeToReadSymlinkedRoot(t *testing.T) {
	realRoot := t.TempDir()
	file := writeFile(t, filepath.Join(realRoot, "a.ts"), "export {}\n")

	linkRoot := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.Symlink(realRoot, linkRoot))

	v := NewPathValidator()
	assert.True(t, v.IsSafeToRead(filepath.Join(linkRoot, "a.ts"), linkRoot))
	assert.True(t, v.IsSafeToRead(file, linkRoot))
}

func TestValidateRoot(t *testing.T) {
	v := NewPathValidator()

	dir := t.TempDir()
	got, err := v.ValidateRoot(dir)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = v.ValidateRoot(filepath.Join(dir, "missing"))
	assert.True(t, scouterrors.IsType(err, scouterrors.ErrorTypeRootNotFound))

	file := writeFile(t, filepath.Join(dir, "file.txt"), "x")
	_, err = v.ValidateRoot(file)
	var ee *scouterrors.ExploreError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, scouterrors.ErrorTypeRootNotDir, ee.Type)

	_, err = v.ValidateRoot("  ")
	assert.True(t, scouterrors.IsType(err, scouterrors.ErrorTypeRootNotFound))
}
