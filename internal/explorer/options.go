// Package explorer walks a project tree into a CodebaseStructure under
// depth, file-count, per-type and resource budgets.
package explorer

import (
	"github.com/standardbeagle/scout/internal/config"
	"github.com/standardbeagle/scout/internal/types"
)

// Options tunes a walk. Zero values fall back to defaults.
type Options struct {
	MaxDepth         int   // deepest directory walked; deeper ones are skipped whole
	BatchSize        int   // directory entries processed concurrently per batch
	MaxFilesPerType  int   // bucket cap per extension
	MaxFileSize      int64 // per-file ceiling; larger files are counted nowhere
	FollowSymlinks   bool
	RespectGitignore bool
	Include          []string // doublestar globs a file must match, when set
	Exclude          []string // doublestar globs for files and directories
}

// DefaultOptions returns the built-in walk limits.
func DefaultOptions() Options {
	return Options{
		MaxDepth:        types.DefaultMaxDepth,
		BatchSize:       types.DefaultBatchSize,
		MaxFilesPerType: types.DefaultMaxFilesPerType,
		MaxFileSize:     types.DefaultMaxFileSize,
	}
}

// OptionsFromConfig maps loaded configuration onto walk options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxDepth:         cfg.Explore.MaxDepth,
		BatchSize:        cfg.Explore.BatchSize,
		MaxFilesPerType:  cfg.Explore.MaxFilesPerType,
		MaxFileSize:      cfg.Budget.MaxFileSizeBytes,
		FollowSymlinks:   cfg.Explore.FollowSymlinks,
		RespectGitignore: cfg.Explore.RespectGitignore,
		Include:          append([]string(nil), cfg.Include...),
		Exclude:          append([]string(nil), cfg.Exclude...),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.MaxFilesPerType <= 0 {
		o.MaxFilesPerType = d.MaxFilesPerType
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = d.MaxFileSize
	}
	return o
}
