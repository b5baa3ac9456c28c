package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitignoreParser_ShouldIgnore(t *testing.T) {
	gp := NewGitignoreParser()
	for _, line := range []string{
		"# comment",
		"",
		"*.log",
		"!keep.log",
		"tmp/",
		"/secrets.env",
		"docs/generated",
		"**/snapshots/*.snap",
		"cache*",
	} {
		gp.AddPattern(line)
	}
	require.Equal(t, 7, gp.Len())

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"debug.log", false, true},
		{"logs/app/debug.log", false, true},
		{"keep.log", false, false},
		{"logs/keep.log", false, false},
		{"tmp", true, true},
		{"tmp", false, false},
		{"src/tmp", true, true},
		{"src/tmp/file.go", false, true},
		{"secrets.env", false, true},
		{"config/secrets.env", false, false},
		{"docs/generated", true, true},
		{"docs/generated/api.md", false, true},
		{"web/docs/generated", true, false},
		{"ui/snapshots/button.snap", false, true},
		{"snapshots/button.snap", false, true},
		{"cache_dir/data.json", false, true},
		{"src/main.go", false, false},
		{"./debug.log", false, true},
		{"", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, gp.ShouldIgnore(tt.path, tt.isDir))
		})
	}
}

func TestGitignoreParser_LoadGitignore(t *testing.T) {
	root := t.TempDir()

	gp := NewGitignoreParser()
	require.NoError(t, gp.LoadGitignore(root), "missing .gitignore is not an error")
	assert.Equal(t, 0, gp.Len())

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("out/\n# note\n\\#hash.txt\n"), 0o644))
	require.NoError(t, gp.LoadGitignore(root))
	assert.Equal(t, 2, gp.Len())
	assert.True(t, gp.ShouldIgnore("out/bundle.js", false))
	assert.True(t, gp.ShouldIgnore("#hash.txt", false))
}

func TestParsePattern(t *testing.T) {
	assert.Equal(t, GitignorePattern{Pattern: "build", Directory: true}, parsePattern("build/"))
	assert.Equal(t, GitignorePattern{Pattern: "a/b", Anchored: true}, parsePattern("/a/b"))
	assert.Equal(t, GitignorePattern{Pattern: "a/b", Anchored: true}, parsePattern("a/b"))
	assert.Equal(t, GitignorePattern{Pattern: "**/x", Negate: true}, parsePattern("!**/x"))
}
