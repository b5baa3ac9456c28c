package config

import (
	"os"
	"time"

	"github.com/standardbeagle/scout/internal/resource"
	"github.com/standardbeagle/scout/internal/types"
)

// FileName is the per-project configuration file. A file of the same name in
// the home directory supplies base settings.
const FileName = ".scout.kdl"

// DefaultWatchDebounceMs is the quiet period after the last change before
// the watch command re-explores.
const DefaultWatchDebounceMs = 300

type Config struct {
	Version  int
	Project  Project
	Explore  Explore
	Budget   resource.Budget
	Analysis Analysis
	Watch    Watch
	Include  []string
	Exclude  []string
}

type Project struct {
	Root string `json:"root" yaml:"root"`
	Name string `json:"name" yaml:"name"`
}

type Explore struct {
	MaxDepth         int  `json:"max_depth" yaml:"max_depth"`                   // Directories deeper than this are skipped entirely
	BatchSize        int  `json:"batch_size" yaml:"batch_size"`                 // Entries processed concurrently per batch
	MaxFilesPerType  int  `json:"max_files_per_type" yaml:"max_files_per_type"` // Bucket cap per extension
	FollowSymlinks   bool `json:"follow_symlinks" yaml:"follow_symlinks"`       // Descend into symlinked directories
	RespectGitignore bool `json:"respect_gitignore" yaml:"respect_gitignore"`   // Honour the root .gitignore
}

type Analysis struct {
	Target      string `json:"target" yaml:"target"` // Extension (".ts") or category ("source")
	SampleSize  int    `json:"sample_size" yaml:"sample_size"`
	MaxFileSize int64  `json:"max_file_size" yaml:"max_file_size"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
}

type Watch struct {
	DebounceMs int `json:"debounce_ms" yaml:"debounce_ms"`
}

// Debounce returns the watch debounce as a duration.
func (w Watch) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns the built-in configuration for root.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Explore: Explore{
			MaxDepth:         types.DefaultMaxDepth,
			BatchSize:        types.DefaultBatchSize,
			MaxFilesPerType:  types.DefaultMaxFilesPerType,
			FollowSymlinks:   false,
			RespectGitignore: true,
		},
		Budget: resource.DefaultBudget(),
		Analysis: Analysis{
			Target:      string(types.CategorySource),
			SampleSize:  types.DefaultSampleSize,
			MaxFileSize: types.DefaultAnalysisMaxFileSize,
			Concurrency: types.DefaultAnalysisConcurrency,
		},
		Watch:   Watch{DebounceMs: DefaultWatchDebounceMs},
		Include: []string{},
		Exclude: getDefaultExclusions(),
	}
}

// Load reads configuration for rootDir: ~/.scout.kdl as the base, then
// rootDir/.scout.kdl over it, then build-artifact exclusions detected in
// rootDir. The result is validated.
func Load(rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	projectConfig, err := LoadKDL(searchDir)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		cfg = baseConfig
		cfg.Project.Root = absOrSelf(searchDir)
	default:
		cfg = Default(absOrSelf(searchDir))
	}

	cfg.EnrichExclusionsWithBuildArtifacts()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs lays project over base. Project settings win; exclusions
// from both are kept, and base inclusions apply when the project has none.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		merged.Exclude = DeduplicatePatterns(append(append([]string{}, base.Exclude...), project.Exclude...))
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts adds exclusions for output
// directories declared by the project's build configuration.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// File-level exclusions. Directory-level noise (node_modules, dist, dot
// directories...) is handled by the walker's fixed ignore set.
func getDefaultExclusions() []string {
	return []string{
		// Minified and bundled output
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/*.chunk.js",
		"**/*.map",

		// Lock files
		"**/package-lock.json",
		"**/yarn.lock",
		"**/pnpm-lock.yaml",
		"**/Cargo.lock",
		"**/poetry.lock",
		"**/go.sum",

		// Compiled objects and archives
		"**/*.pyc",
		"**/*.class",
		"**/*.o",
		"**/*.so",
		"**/*.dll",
		"**/*.exe",
		"**/*.zip",
		"**/*.tar.gz",
		"**/*.jar",

		// Editor and OS droppings
		"**/*.swp",
		"**/*~",
		"**/Thumbs.db",
		"**/.DS_Store",

		// Logs
		"**/*.log",
	}
}
