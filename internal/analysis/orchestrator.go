package analysis

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/standardbeagle/scout/internal/debug"
	scouterrors "github.com/standardbeagle/scout/internal/errors"
	"github.com/standardbeagle/scout/internal/limiter"
	"github.com/standardbeagle/scout/internal/security"
	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/pkg/pathutil"
)

// Options bounds one analysis run. Zero values fall back to defaults.
type Options struct {
	Target      string // extension (".ts") or category ("source")
	SampleSize  int
	MaxFileSize int64 // independent of the walker's ceiling
	Concurrency int
}

// DefaultOptions returns the built-in analysis limits.
func DefaultOptions() Options {
	return Options{
		Target:      string(types.CategorySource),
		SampleSize:  types.DefaultSampleSize,
		MaxFileSize: types.DefaultAnalysisMaxFileSize,
		Concurrency: types.DefaultAnalysisConcurrency,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Target == "" {
		o.Target = d.Target
	}
	if o.SampleSize <= 0 {
		o.SampleSize = d.SampleSize
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = d.MaxFileSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	return o
}

// Status of one candidate file.
type Status string

const (
	StatusAnalyzed Status = "analyzed"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Outcome is what happened to one candidate.
type Outcome struct {
	Path   string `json:"path" yaml:"path"`
	Status Status `json:"status" yaml:"status"`
	Issues int    `json:"issues" yaml:"issues"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Result aggregates one run. Issues holds every analyzed file's issues
// exactly once.
type Result struct {
	Target   string        `json:"target" yaml:"target"`
	Issues   []types.Issue `json:"issues" yaml:"issues"`
	Outcomes []Outcome     `json:"outcomes" yaml:"outcomes"`
	Analyzed int           `json:"analyzed" yaml:"analyzed"`
	Skipped  int           `json:"skipped" yaml:"skipped"`
	Failed   int           `json:"failed" yaml:"failed"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Orchestrator feeds sampled files to an Analyzer through a single limiter.
type Orchestrator struct {
	analyzer  Analyzer
	validator PathChecker
	opts      Options
	limiter   *limiter.Limiter
	logger    debug.Logger
}

// NewOrchestrator creates an orchestrator. A nil analyzer uses
// PatternAnalyzer and a nil validator uses security.PathValidator.
func NewOrchestrator(analyzer Analyzer, validator PathChecker, opts Options, logger debug.Logger) *Orchestrator {
	if analyzer == nil {
		analyzer = NewPatternAnalyzer()
	}
	if validator == nil {
		validator = security.NewPathValidator()
	}
	opts = opts.withDefaults()
	return &Orchestrator{
		analyzer:  analyzer,
		validator: validator,
		opts:      opts,
		limiter:   limiter.New(opts.Concurrency),
		logger:    debug.OrNop(logger),
	}
}

// Candidates returns the files Run would analyze: the target bucket or
// category sorted by path, truncated to SampleSize.
func (o *Orchestrator) Candidates(cs *types.CodebaseStructure) ([]types.FileInfo, error) {
	var files []types.FileInfo
	switch {
	case len(o.opts.Target) > 1 && o.opts.Target[0] == '.':
		files = append(files, cs.FilesByExtension[o.opts.Target]...)
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	default:
		c, ok := types.ParseCategory(o.opts.Target)
		if !ok {
			return nil, scouterrors.NewConfigError("analysis.target", o.opts.Target,
				fmt.Errorf("must be an extension like .go or one of %v", types.Categories))
		}
		files = cs.FilesInCategory(c)
	}
	if len(files) > o.opts.SampleSize {
		files = files[:o.opts.SampleSize]
	}
	return files, nil
}

// Run analyzes the sampled candidates of cs. Per-file problems are logged
// and recorded in the result. Only an invalid target or a cancelled ctx
// return an error.
func (o *Orchestrator) Run(ctx context.Context, cs *types.CodebaseStructure) (*Result, error) {
	start := time.Now()

	candidates, err := o.Candidates(cs)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(candidates))
	issues := make([][]types.Issue, len(candidates))

	var wg sync.WaitGroup
	var ctxErr error
	var errOnce sync.Once
	for i, file := range candidates {
		i, file := i, file
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := o.limiter.Do(ctx, func(ctx context.Context) error {
				outcomes[i], issues[i] = o.analyzeFile(ctx, cs.RootPath, file)
				return nil
			})
			if err != nil {
				errOnce.Do(func() { ctxErr = err })
				outcomes[i] = Outcome{Path: file.Path, Status: StatusSkipped, Reason: err.Error()}
			}
		}()
	}
	wg.Wait()
	if ctxErr != nil {
		return nil, ctxErr
	}

	res := &Result{Target: o.opts.Target, Outcomes: outcomes, Issues: []types.Issue{}}
	for i, out := range outcomes {
		switch out.Status {
		case StatusAnalyzed:
			res.Analyzed++
			res.Issues = append(res.Issues, issues[i]...)
		case StatusSkipped:
			res.Skipped++
		case StatusFailed:
			res.Failed++
		}
	}
	res.Duration = time.Since(start)

	o.logger.Info(debug.ComponentAnalysis, "analysis complete",
		"target", o.opts.Target,
		"analyzed", res.Analyzed,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"issues", len(res.Issues),
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// analyzeFile re-checks one candidate against the filesystem and runs the
// analyzer on it.
func (o *Orchestrator) analyzeFile(ctx context.Context, root string, file types.FileInfo) (Outcome, []types.Issue) {
	path := file.Path
	rel := pathutil.ToSlashRelative(path, root)
	skip := func(reason string) (Outcome, []types.Issue) {
		return Outcome{Path: path, Status: StatusSkipped, Reason: reason}, nil
	}
	fail := func(err error) (Outcome, []types.Issue) {
		o.logger.Warn(debug.ComponentAnalysis, "analysis failed", "path", rel, "error", err)
		return Outcome{Path: path, Status: StatusFailed, Reason: err.Error()}, nil
	}

	if !o.validator.IsSafeToRead(path, root) {
		o.logger.Warn(debug.ComponentAnalysis, "skipping path outside root", "path", rel)
		return skip("unsafe path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(scouterrors.NewFileError("stat", path, err))
	}
	if info.Size() > o.opts.MaxFileSize {
		o.logger.Debug(debug.ComponentAnalysis, "skipping oversized file", "path", rel, "size", info.Size(), "limit", o.opts.MaxFileSize)
		return skip(fmt.Sprintf("size %d exceeds %d", info.Size(), o.opts.MaxFileSize))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fail(scouterrors.NewFileError("read", path, err))
	}
	if err := security.ValidateContent(path, content); err != nil {
		o.logger.Debug(debug.ComponentAnalysis, "skipping file", "path", rel, "error", err)
		return skip(err.Error())
	}

	found, err := o.invoke(ctx, content, path)
	if err != nil {
		return fail(scouterrors.NewAnalyzerError(path, err))
	}
	for i := range found {
		if found[i].Path == "" {
			found[i].Path = path
		}
	}
	debug.LogAnalysis("%s: %d issues\n", rel, len(found))
	return Outcome{Path: path, Status: StatusAnalyzed, Issues: len(found)}, found
}

// invoke isolates analyzer panics to the file being analyzed.
func (o *Orchestrator) invoke(ctx context.Context, content []byte, path string) (issues []types.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			issues, err = nil, fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	return o.analyzer.Analyze(ctx, content, path)
}
