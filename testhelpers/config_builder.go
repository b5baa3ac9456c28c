package testhelpers

import (
	"time"

	"github.com/standardbeagle/scout/internal/config"
	"github.com/standardbeagle/scout/internal/resource"
)

// TestConfigBuilder provides a fluent API for building test configs with
// small, fast limits.
//
//	cfg := testhelpers.NewTestConfigBuilder(tree.Root).
//		WithExclusions("**/generated/**").
//		WithMaxFiles(5).
//		Build()
type TestConfigBuilder struct {
	cfg *config.Config
}

// NewTestConfigBuilder starts from the defaults with gitignore handling off
// and the default file-level exclusions cleared.
func NewTestConfigBuilder(projectRoot string) *TestConfigBuilder {
	cfg := config.Default(projectRoot)
	cfg.Project.Name = "test-project"
	cfg.Explore.RespectGitignore = false
	cfg.Exclude = nil
	cfg.Budget = resource.Budget{
		MaxMemoryMB:       4096,
		MaxFiles:          1000,
		MaxFileSizeBytes:  cfg.Budget.MaxFileSizeBytes,
		MaxProcessingTime: time.Minute,
	}
	cfg.Watch.DebounceMs = 20
	return &TestConfigBuilder{cfg: cfg}
}

// WithExclusions adds exclusion patterns
func (b *TestConfigBuilder) WithExclusions(patterns ...string) *TestConfigBuilder {
	b.cfg.Exclude = append(b.cfg.Exclude, patterns...)
	return b
}

// WithInclusions sets the include patterns
func (b *TestConfigBuilder) WithInclusions(patterns ...string) *TestConfigBuilder {
	b.cfg.Include = patterns
	return b
}

// WithMaxFiles sets the global file cap
func (b *TestConfigBuilder) WithMaxFiles(n int) *TestConfigBuilder {
	b.cfg.Budget.MaxFiles = n
	return b
}

// WithMaxDepth sets the directory depth ceiling
func (b *TestConfigBuilder) WithMaxDepth(n int) *TestConfigBuilder {
	b.cfg.Explore.MaxDepth = n
	return b
}

// WithMaxFilesPerType sets the per-extension bucket cap
func (b *TestConfigBuilder) WithMaxFilesPerType(n int) *TestConfigBuilder {
	b.cfg.Explore.MaxFilesPerType = n
	return b
}

// WithGitignore enables .gitignore handling
func (b *TestConfigBuilder) WithGitignore() *TestConfigBuilder {
	b.cfg.Explore.RespectGitignore = true
	return b
}

// WithFollowSymlinks enables descending into symlinked directories
func (b *TestConfigBuilder) WithFollowSymlinks() *TestConfigBuilder {
	b.cfg.Explore.FollowSymlinks = true
	return b
}

// Build returns the config
func (b *TestConfigBuilder) Build() *config.Config {
	return b.cfg
}
