package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "github.com/standardbeagle/scout/internal/errors"
	"github.com/standardbeagle/scout/internal/types"
)

func TestValidator_SetsDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: "/repo"},
		Budget:  Default("/repo").Budget,
	}

	require.NoError(t, NewValidator().ValidateAndSetDefaults(cfg))

	assert.Equal(t, types.DefaultMaxDepth, cfg.Explore.MaxDepth)
	assert.Equal(t, types.DefaultBatchSize, cfg.Explore.BatchSize)
	assert.Equal(t, types.DefaultMaxFilesPerType, cfg.Explore.MaxFilesPerType)
	assert.Equal(t, "source", cfg.Analysis.Target)
	assert.Equal(t, types.DefaultSampleSize, cfg.Analysis.SampleSize)
	assert.Equal(t, int64(types.DefaultAnalysisMaxFileSize), cfg.Analysis.MaxFileSize)
	assert.Equal(t, types.DefaultAnalysisConcurrency, cfg.Analysis.Concurrency)
	assert.Equal(t, DefaultWatchDebounceMs, cfg.Watch.DebounceMs)
}

func TestValidator_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty root", func(c *Config) { c.Project.Root = " " }, "project.root"},
		{"negative depth", func(c *Config) { c.Explore.MaxDepth = -1 }, "explore.max_depth"},
		{"huge depth", func(c *Config) { c.Explore.MaxDepth = 1000 }, "explore.max_depth"},
		{"negative batch", func(c *Config) { c.Explore.BatchSize = -5 }, "explore.batch_size"},
		{"negative bucket cap", func(c *Config) { c.Explore.MaxFilesPerType = -1 }, "explore.max_files_per_type"},
		{"zero memory budget", func(c *Config) { c.Budget.MaxMemoryMB = 0 }, "budget.max_memory_mb"},
		{"zero file size budget", func(c *Config) { c.Budget.MaxFileSizeBytes = 0 }, "budget.max_file_size"},
		{"negative sample", func(c *Config) { c.Analysis.SampleSize = -2 }, "analysis.sample_size"},
		{"negative analysis size", func(c *Config) { c.Analysis.MaxFileSize = -1 }, "analysis.max_file_size"},
		{"negative concurrency", func(c *Config) { c.Analysis.Concurrency = -1 }, "analysis.concurrency"},
		{"bad target", func(c *Config) { c.Analysis.Target = "everything" }, "analysis.target"},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -10 }, "watch.debounce_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/repo")
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.True(t, scouterrors.IsType(err, scouterrors.ErrorTypeConfig))
			var ce *scouterrors.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestValidateTarget(t *testing.T) {
	for _, ok := range []string{".ts", ".go", "source", "test", "config", "doc", "other"} {
		assert.NoError(t, ValidateTarget(ok), ok)
	}
	for _, bad := range []string{".", "ts", "src", ""} {
		assert.Error(t, ValidateTarget(bad), bad)
	}
}
