package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/scout/internal/analysis"
	"github.com/standardbeagle/scout/internal/config"
	"github.com/standardbeagle/scout/internal/debug"
	"github.com/standardbeagle/scout/internal/display"
	"github.com/standardbeagle/scout/internal/explorer"
	"github.com/standardbeagle/scout/internal/plan"
	"github.com/standardbeagle/scout/internal/resource"
	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/internal/watch"
	"github.com/standardbeagle/scout/pkg/pathutil"
)

// exploreOnce runs one walk with a fresh monitor. A monitor's file count
// and clock are cumulative, so no monitor is shared between walks.
func exploreOnce(ctx context.Context, cfg *config.Config, logger debug.Logger) (*types.CodebaseStructure, error) {
	monitor, err := resource.NewMonitor(cfg.Budget, resource.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	monitor.StartBackgroundSampling(sampleInterval)
	defer monitor.Stop()

	walker := explorer.NewWalker(explorer.OptionsFromConfig(cfg), monitor, nil, logger)
	return walker.Walk(ctx, cfg.Project.Root)
}

func analyzeOnce(ctx context.Context, cfg *config.Config, cs *types.CodebaseStructure, logger debug.Logger) (*analysis.Result, error) {
	orch := analysis.NewOrchestrator(nil, nil, analysis.Options{
		Target:      cfg.Analysis.Target,
		SampleSize:  cfg.Analysis.SampleSize,
		MaxFileSize: cfg.Analysis.MaxFileSize,
		Concurrency: cfg.Analysis.Concurrency,
	}, logger)
	return orch.Run(ctx, cs)
}

func exploreCommand(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	cs, err := exploreOnce(c.Context, cfg, newLogger(c))
	if err != nil {
		return err
	}

	out := c.App.Writer
	if format != formatText {
		return writeStructured(out, format, exploreReport{
			Build:     currentBuild(),
			Structure: pathutil.RelativeStructure(cs),
		})
	}

	renderStructure(out, cs)
	if c.Bool("tree") {
		fmt.Fprintln(out)
		header(out, "Directory tree")
		fmt.Fprint(out, display.NewTreeFormatter(display.FormatterOptions{
			MaxDepth: cfg.Explore.MaxDepth,
			ShowSize: true,
		}).Format(cs))
	}
	if c.Bool("files") {
		fmt.Fprintln(out)
		renderFiles(out, cs)
	}
	return nil
}

func analyzeCommand(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)

	cs, err := exploreOnce(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	res, err := analyzeOnce(c.Context, cfg, cs, logger)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if format != formatText {
		return writeStructured(out, format, analyzeReport{
			Build:  currentBuild(),
			Root:   cs.RootPath,
			Result: relativeResult(res, cs.RootPath),
		})
	}
	renderAnalysis(out, res, cs.RootPath)
	return nil
}

func planCommand(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)

	cs, err := exploreOnce(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	res, err := analyzeOnce(c.Context, cfg, cs, logger)
	if err != nil {
		return err
	}
	p := plan.NewBuilder(plan.DefaultThresholds()).Build(cs, res.Issues)

	out := c.App.Writer
	switch {
	case format != formatText:
		return writeStructured(out, format, planReport{Build: currentBuild(), Plan: p})
	case c.Bool("markdown"):
		fmt.Fprint(out, p.Markdown())
	default:
		renderPlan(out, p)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)
	out := c.App.Writer

	explore := func(ctx context.Context) (*types.CodebaseStructure, error) {
		return exploreOnce(ctx, cfg, logger)
	}

	cs, err := explore(c.Context)
	if err != nil {
		return err
	}
	renderWatchUpdate(out, format, watch.Update{Structure: cs})

	w, err := watch.New(cfg.Project.Root, explore, watch.Options{
		Debounce: cfg.Watch.Debounce(),
		Exclude:  cfg.Exclude,
		OnUpdate: func(u watch.Update) { renderWatchUpdate(out, format, u) },
	}, logger)
	if err != nil {
		return err
	}
	if err := w.Start(c.Context); err != nil {
		_ = w.Stop()
		return err
	}
	if format == formatText {
		fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", cfg.Project.Root)
	}

	<-c.Context.Done()
	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}

	if format == formatText {
		st := w.Stats()
		fmt.Fprintf(out, "Stopped after %d re-explorations (%d events, %d errors)\n", st.Walks, st.EventsProcessed, st.Errors)
	}
	return nil
}

func configShowCommand(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if format != formatText {
		return writeStructured(c.App.Writer, format, newConfigView(cfg))
	}
	displayConfigTable(c.App.Writer, cfg)
	return nil
}

func configValidateCommand(c *cli.Context) error {
	out := c.App.Writer

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		fmt.Fprintf(out, "%s Configuration validation failed: %v\n", color.RedString("✗"), err)
		return err
	}

	var warnings []string
	if cfg.Budget.MaxMemoryMB < 64 {
		warnings = append(warnings, "max_memory_mb is very low (<64MB); walks may stop early")
	}
	if cfg.Budget.MaxFiles < 100 {
		warnings = append(warnings, "max_files is very low (<100); most projects will be truncated")
	}
	if cfg.Explore.MaxFilesPerType > cfg.Budget.MaxFiles {
		warnings = append(warnings, "max_files_per_type exceeds max_files and will never be reached")
	}
	if cfg.Analysis.MaxFileSize > cfg.Budget.MaxFileSizeBytes {
		warnings = append(warnings, "analysis max_file_size exceeds the walk's max_file_size")
	}

	fmt.Fprintf(out, "%s Configuration is valid\n", color.GreenString("✓"))
	fmt.Fprintf(out, "Root: %s\n", cfg.Project.Root)
	fmt.Fprintf(out, "Budget: %s\n", cfg.Budget)

	if len(warnings) > 0 {
		fmt.Fprintf(out, "\n%s\n", color.YellowString("Warnings:"))
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	return nil
}

func displayConfigTable(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "Scout Configuration\n")
	fmt.Fprintf(out, "===================\n\n")

	fmt.Fprintf(out, "Project Settings:\n")
	fmt.Fprintf(out, "  Name:               %s\n", cfg.Project.Name)
	fmt.Fprintf(out, "  Root:               %s\n", cfg.Project.Root)
	fmt.Fprintf(out, "\n")

	fmt.Fprintf(out, "Explore Settings:\n")
	fmt.Fprintf(out, "  Max depth:          %d\n", cfg.Explore.MaxDepth)
	fmt.Fprintf(out, "  Batch size:         %d\n", cfg.Explore.BatchSize)
	fmt.Fprintf(out, "  Max files per type: %d\n", cfg.Explore.MaxFilesPerType)
	fmt.Fprintf(out, "  Follow symlinks:    %t\n", cfg.Explore.FollowSymlinks)
	fmt.Fprintf(out, "  Respect .gitignore: %t\n", cfg.Explore.RespectGitignore)
	fmt.Fprintf(out, "\n")

	fmt.Fprintf(out, "Budget:\n")
	fmt.Fprintf(out, "  Max memory:         %d MB\n", cfg.Budget.MaxMemoryMB)
	fmt.Fprintf(out, "  Max files:          %d\n", cfg.Budget.MaxFiles)
	fmt.Fprintf(out, "  Max file size:      %s\n", plan.HumanSize(cfg.Budget.MaxFileSizeBytes))
	fmt.Fprintf(out, "  Max time:           %s\n", cfg.Budget.MaxProcessingTime)
	fmt.Fprintf(out, "\n")

	fmt.Fprintf(out, "Analysis Settings:\n")
	fmt.Fprintf(out, "  Target:             %s\n", cfg.Analysis.Target)
	fmt.Fprintf(out, "  Sample size:        %d\n", cfg.Analysis.SampleSize)
	fmt.Fprintf(out, "  Max file size:      %s\n", plan.HumanSize(cfg.Analysis.MaxFileSize))
	fmt.Fprintf(out, "  Concurrency:        %d\n", cfg.Analysis.Concurrency)
	fmt.Fprintf(out, "\n")

	fmt.Fprintf(out, "Watch Settings:\n")
	fmt.Fprintf(out, "  Debounce:           %d ms\n", cfg.Watch.DebounceMs)
	fmt.Fprintf(out, "\n")

	fmt.Fprintf(out, "Include Patterns (%d):\n", len(cfg.Include))
	for _, pattern := range cfg.Include {
		fmt.Fprintf(out, "  %s\n", pattern)
	}
	fmt.Fprintf(out, "\n")

	fmt.Fprintf(out, "Exclude Patterns (%d):\n", len(cfg.Exclude))
	for _, pattern := range cfg.Exclude {
		fmt.Fprintf(out, "  %s\n", pattern)
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
