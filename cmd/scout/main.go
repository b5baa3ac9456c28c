package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/scout/internal/config"
	"github.com/standardbeagle/scout/internal/debug"
	"github.com/standardbeagle/scout/internal/version"
)

// sampleInterval is how often the resource monitor samples memory while a
// command runs.
const sampleInterval = 250 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   "scout",
		Usage:                  "Bounded, resource-aware codebase exploration",
		Version:                version.Current().Short(),
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to explore (overrides config)",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only count files matching glob patterns (e.g., --include '*.go')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files and directories matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.IntFlag{
				Name:  "max-files",
				Usage: "Global file cap for the walk (overrides config)",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "Directory depth ceiling (overrides config)",
			},
			&cli.IntFlag{
				Name:  "max-memory-mb",
				Usage: "Memory budget in MB (overrides config)",
			},
			&cli.DurationFlag{
				Name:  "max-time",
				Usage: "Processing time budget, e.g. 90s (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "follow-symlinks",
				Usage: "Descend into symlinked directories inside the root",
			},
			&cli.BoolFlag{
				Name:  "no-gitignore",
				Usage: "Do not apply the root .gitignore",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json or yaml",
				Value:   formatText,
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON (same as --format json)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable coloured output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug and info messages to stderr",
			},
			&cli.BoolFlag{
				Name:   "debug-log",
				Usage:  "Write component debug output to a temporary log file",
				Hidden: true,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return fmt.Errorf("failed to open debug log: %w", err)
				}
				fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", path)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:    "explore",
				Aliases: []string{"e"},
				Usage:   "Walk the project and summarise its structure",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "tree",
						Usage: "Show retained directories as a tree (text format)",
					},
					&cli.BoolFlag{
						Name:  "files",
						Usage: "List bucketed files per extension (text format)",
					},
				},
				Action: exploreCommand,
			},
			{
				Name:    "analyze",
				Aliases: []string{"a"},
				Usage:   "Explore, then run the pattern analyzer over a bounded sample",
				Flags:   analysisFlags(),
				Action:  analyzeCommand,
			},
			{
				Name:    "plan",
				Aliases: []string{"p"},
				Usage:   "Explore, analyze and print strengths, weaknesses, risks and recommendations",
				Flags: append(analysisFlags(),
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Print the plan as markdown",
					},
				),
				Action: planCommand,
			},
			{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Re-explore the project whenever files change",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period after the last change before re-exploring (overrides config)",
					},
				},
				Action: watchCommand,
			},
			{
				Name:  "config",
				Usage: "Inspect configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show the effective configuration",
						Action: configShowCommand,
					},
					{
						Name:   "validate",
						Usage:  "Validate the configuration files",
						Action: configValidateCommand,
					},
				},
			},
		},
	}
}

func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "Extension (.ts) or category (source, test, config, doc, other) to sample",
		},
		&cli.IntFlag{
			Name:    "sample",
			Aliases: []string{"n"},
			Usage:   "Number of files to analyze",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Files analyzed at once",
		},
	}
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	absRoot, err := filepath.Abs(c.String("root"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", c.String("root"), err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", absRoot, err)
	}

	// A root given on the command line wins over project.root
	if c.IsSet("root") {
		cfg.Project.Root = absRoot
	}
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if c.IsSet("max-files") {
		cfg.Budget.MaxFiles = c.Int("max-files")
	}
	if c.IsSet("max-depth") {
		cfg.Explore.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("max-memory-mb") {
		cfg.Budget.MaxMemoryMB = c.Int("max-memory-mb")
	}
	if c.IsSet("max-time") {
		cfg.Budget.MaxProcessingTime = c.Duration("max-time")
	}
	if c.Bool("follow-symlinks") {
		cfg.Explore.FollowSymlinks = true
	}
	if c.Bool("no-gitignore") {
		cfg.Explore.RespectGitignore = false
	}
	if c.IsSet("target") {
		cfg.Analysis.Target = c.String("target")
	}
	if c.IsSet("sample") {
		cfg.Analysis.SampleSize = c.Int("sample")
	}
	if c.IsSet("concurrency") {
		cfg.Analysis.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("debounce") {
		cfg.Watch.DebounceMs = int(c.Duration("debounce") / time.Millisecond)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes warnings and errors to stderr, and everything with
// --verbose.
func newLogger(c *cli.Context) debug.Logger {
	level := debug.LevelWarn
	if c.Bool("verbose") {
		level = debug.LevelDebug
	}
	return debug.NewLogger(c.App.ErrWriter, level)
}
