package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("", "/repo")
	require.NoError(t, err)
	assert.Equal(t, Default("/repo"), cfg)
}

func TestParseKDL_AllSections(t *testing.T) {
	content := `
project {
    root "./app"
    name "shop"
}
explore {
    max_depth 12
    batch_size 25
    max_files_per_type 40
    follow_symlinks true
    respect_gitignore false
}
budget {
    max_memory_mb 256
    max_files 500
    max_file_size "512KB"
    max_processing_time "90s"
}
analysis {
    target ".ts"
    sample_size 8
    max_file_size 2048
    concurrency 4
}
watch {
    debounce_ms 150
}
include "src/**"
exclude "**/generated/**" "**/*.pb.go"
`
	cfg, err := parseKDL(content, "/repo")
	require.NoError(t, err)

	assert.Equal(t, "./app", cfg.Project.Root)
	assert.Equal(t, "shop", cfg.Project.Name)

	assert.Equal(t, Explore{MaxDepth: 12, BatchSize: 25, MaxFilesPerType: 40, FollowSymlinks: true}, cfg.Explore)

	assert.Equal(t, 256, cfg.Budget.MaxMemoryMB)
	assert.Equal(t, 500, cfg.Budget.MaxFiles)
	assert.Equal(t, int64(512*1024), cfg.Budget.MaxFileSizeBytes)
	assert.Equal(t, 90*time.Second, cfg.Budget.MaxProcessingTime)

	assert.Equal(t, Analysis{Target: ".ts", SampleSize: 8, MaxFileSize: 2048, Concurrency: 4}, cfg.Analysis)
	assert.Equal(t, 150, cfg.Watch.DebounceMs)

	assert.Equal(t, []string{"src/**"}, cfg.Include)
	assert.Equal(t, []string{"**/generated/**", "**/*.pb.go"}, cfg.Exclude)
}

func TestParseKDL_ProcessingTimeSeconds(t *testing.T) {
	cfg, err := parseKDL(`budget { max_processing_time 45 }`, "/repo")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Budget.MaxProcessingTime)
}

func TestParseKDL_InvalidValuesKeepDefaults(t *testing.T) {
	cfg, err := parseKDL(`
budget {
    max_file_size "huge"
    max_processing_time "soon"
}
`, "/repo")
	require.NoError(t, err)
	assert.Equal(t, Default("/repo").Budget, cfg.Budget)
}

func TestParseKDL_ExcludeBlockReplacesDefaults(t *testing.T) {
	cfg, err := parseKDL(`
exclude {
    "**/fixtures/**"
}
`, "/repo")
	require.NoError(t, err)
	assert.Equal(t, []string{"**/fixtures/**"}, cfg.Exclude)
}

func TestParseKDL_Malformed(t *testing.T) {
	_, err := parseKDL(`explore { max_depth`, "/repo")
	assert.Error(t, err)
}

func TestLoadKDL_RelativeRoot(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `project { root "sub/../app" }`)

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, filepath.Join(dir, "app"), cfg.Project.Root)
}

func TestLoadKDL_Missing(t *testing.T) {
	cfg, err := LoadKDL(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10MB", 10 * 1024 * 1024, false},
		{"500kb", 500 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{"128B", 128, false},
		{" 64 ", 64, false},
		{"2 MB", 2 * 1024 * 1024, false},
		{"MB", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
