package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	scouterrors "github.com/standardbeagle/scout/internal/errors"
	"github.com/standardbeagle/scout/internal/types"
)

// maxDepthCeiling bounds the configurable walk depth
const maxDepthCeiling = 64

// Validator validates configuration and sets defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults fills zero-valued tunables with defaults, then
// rejects anything negative or nonsensical. Budget limits have no
// fallback: zero or negative is an error.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setDefaults(cfg)

	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return err
	}
	if err := v.validateExploreConfig(&cfg.Explore); err != nil {
		return err
	}
	if err := cfg.Budget.Validate(); err != nil {
		return err
	}
	if err := v.validateAnalysisConfig(&cfg.Analysis); err != nil {
		return err
	}
	if cfg.Watch.DebounceMs < 0 {
		return scouterrors.NewConfigError("watch.debounce_ms", strconv.Itoa(cfg.Watch.DebounceMs), errors.New("cannot be negative"))
	}
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if strings.TrimSpace(project.Root) == "" {
		return scouterrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}
	return nil
}

func (v *Validator) validateExploreConfig(explore *Explore) error {
	if explore.MaxDepth < 0 || explore.MaxDepth > maxDepthCeiling {
		return scouterrors.NewConfigError("explore.max_depth", strconv.Itoa(explore.MaxDepth),
			fmt.Errorf("must be between 1 and %d", maxDepthCeiling))
	}
	if explore.BatchSize < 0 {
		return scouterrors.NewConfigError("explore.batch_size", strconv.Itoa(explore.BatchSize), errors.New("cannot be negative"))
	}
	if explore.MaxFilesPerType < 0 {
		return scouterrors.NewConfigError("explore.max_files_per_type", strconv.Itoa(explore.MaxFilesPerType), errors.New("cannot be negative"))
	}
	return nil
}

func (v *Validator) validateAnalysisConfig(analysis *Analysis) error {
	if err := ValidateTarget(analysis.Target); err != nil {
		return err
	}
	if analysis.SampleSize < 0 {
		return scouterrors.NewConfigError("analysis.sample_size", strconv.Itoa(analysis.SampleSize), errors.New("cannot be negative"))
	}
	if analysis.MaxFileSize < 0 {
		return scouterrors.NewConfigError("analysis.max_file_size", strconv.FormatInt(analysis.MaxFileSize, 10), errors.New("cannot be negative"))
	}
	if analysis.Concurrency < 0 {
		return scouterrors.NewConfigError("analysis.concurrency", strconv.Itoa(analysis.Concurrency), errors.New("cannot be negative"))
	}
	return nil
}

// ValidateTarget accepts an extension such as ".ts" or a category name.
func ValidateTarget(target string) error {
	if strings.HasPrefix(target, ".") && len(target) > 1 {
		return nil
	}
	if _, ok := types.ParseCategory(target); ok {
		return nil
	}
	return scouterrors.NewConfigError("analysis.target", target,
		errors.New("must be an extension like \".ts\" or one of source, test, config, doc, other"))
}

func (v *Validator) setDefaults(cfg *Config) {
	if cfg.Explore.MaxDepth == 0 {
		cfg.Explore.MaxDepth = types.DefaultMaxDepth
	}
	if cfg.Explore.BatchSize == 0 {
		cfg.Explore.BatchSize = types.DefaultBatchSize
	}
	if cfg.Explore.MaxFilesPerType == 0 {
		cfg.Explore.MaxFilesPerType = types.DefaultMaxFilesPerType
	}
	if cfg.Analysis.Target == "" {
		cfg.Analysis.Target = string(types.CategorySource)
	}
	if cfg.Analysis.SampleSize == 0 {
		cfg.Analysis.SampleSize = types.DefaultSampleSize
	}
	if cfg.Analysis.MaxFileSize == 0 {
		cfg.Analysis.MaxFileSize = types.DefaultAnalysisMaxFileSize
	}
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = types.DefaultAnalysisConcurrency
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultWatchDebounceMs
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
