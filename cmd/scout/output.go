package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/scout/internal/analysis"
	"github.com/standardbeagle/scout/internal/config"
	"github.com/standardbeagle/scout/internal/plan"
	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/internal/version"
	"github.com/standardbeagle/scout/internal/watch"
	"github.com/standardbeagle/scout/pkg/pathutil"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	warnColor   = color.New(color.FgYellow)
	highColor   = color.New(color.FgRed, color.Bold)
)

func outputFormat(c *cli.Context) (string, error) {
	if c.Bool("json") {
		return formatJSON, nil
	}
	switch f := strings.ToLower(c.String("format")); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", c.String("format"))
	}
}

// currentBuild is a variable so tests can pin it.
var currentBuild = version.Current

type exploreReport struct {
	Build     version.Build            `json:"build" yaml:"build"`
	Structure *types.CodebaseStructure `json:"structure" yaml:"structure"`
}

type analyzeReport struct {
	Build  version.Build    `json:"build" yaml:"build"`
	Root   string           `json:"root" yaml:"root"`
	Result *analysis.Result `json:"result" yaml:"result"`
}

type planReport struct {
	Build version.Build `json:"build" yaml:"build"`
	Plan  *plan.Plan     `json:"plan" yaml:"plan"`
}

type watchReport struct {
	Build     version.Build            `json:"build" yaml:"build"`
	Events    int                      `json:"events" yaml:"events"`
	Error     string                   `json:"error,omitempty" yaml:"error,omitempty"`
	Structure *types.CodebaseStructure `json:"structure,omitempty" yaml:"structure,omitempty"`
}

// configView mirrors the configuration file layout for structured output.
type configView struct {
	Project  config.Project  `json:"project" yaml:"project"`
	Explore  config.Explore  `json:"explore" yaml:"explore"`
	Budget   budgetView      `json:"budget" yaml:"budget"`
	Analysis config.Analysis `json:"analysis" yaml:"analysis"`
	Watch    config.Watch    `json:"watch" yaml:"watch"`
	Include  []string        `json:"include" yaml:"include"`
	Exclude  []string        `json:"exclude" yaml:"exclude"`
}

type budgetView struct {
	MaxMemoryMB       int    `json:"max_memory_mb" yaml:"max_memory_mb"`
	MaxFiles          int    `json:"max_files" yaml:"max_files"`
	MaxFileSizeBytes  int64  `json:"max_file_size" yaml:"max_file_size"`
	MaxProcessingTime string `json:"max_processing_time" yaml:"max_processing_time"`
}

func newConfigView(cfg *config.Config) configView {
	return configView{
		Project:  cfg.Project,
		Explore:  cfg.Explore,
		Analysis: cfg.Analysis,
		Watch:    cfg.Watch,
		Budget: budgetView{
			MaxMemoryMB:       cfg.Budget.MaxMemoryMB,
			MaxFiles:          cfg.Budget.MaxFiles,
			MaxFileSizeBytes:  cfg.Budget.MaxFileSizeBytes,
			MaxProcessingTime: cfg.Budget.MaxProcessingTime.String(),
		},
		Include: nonNil(cfg.Include),
		Exclude: nonNil(cfg.Exclude),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}
}

func relativeResult(res *analysis.Result, root string) *analysis.Result {
	out := *res
	out.Issues = pathutil.RelativeIssues(res.Issues, root)
	out.Outcomes = make([]analysis.Outcome, len(res.Outcomes))
	for i, o := range res.Outcomes {
		o.Path = pathutil.ToRelative(o.Path, root)
		out.Outcomes[i] = o
	}
	return &out
}

func header(w io.Writer, title string) {
	headerColor.Fprintln(w, title)
}

func renderStructure(w io.Writer, cs *types.CodebaseStructure) {
	header(w, "Codebase structure")
	fmt.Fprintf(w, "Root:         %s\n", cs.RootPath)
	fmt.Fprintf(w, "Files:        %d (%s) in %d directories\n",
		cs.TotalFiles, plan.HumanSize(cs.TotalSizeBytes), len(cs.Directories))
	if cs.Truncated {
		warnColor.Fprintf(w, "Truncated:    %s\n", cs.TruncateReason)
	}

	langs := make([]string, 0, len(cs.DetectedLanguages))
	for _, l := range cs.DetectedLanguages {
		langs = append(langs, fmt.Sprintf("%s (%d)", l.Language, l.Files))
	}
	fmt.Fprintf(w, "Languages:    %s\n", joinOrNone(langs))
	fmt.Fprintf(w, "Frameworks:   %s\n", joinOrNone(cs.FrameworkHints))
	fmt.Fprintf(w, "Architecture: %s\n", joinOrNone(cs.ArchitecturePatterns))

	if exts := cs.Extensions(); len(exts) > 0 {
		fmt.Fprintln(w)
		header(w, "Extensions")
		for _, ext := range exts {
			fmt.Fprintf(w, "  %-12s %d\n", ext, len(cs.FilesByExtension[ext]))
		}
	}

	if len(cs.SkippedFiles) > 0 {
		fmt.Fprintln(w)
		header(w, "Skipped")
		for _, s := range cs.SkippedFiles {
			fmt.Fprintf(w, "  %s (%s)\n", pathutil.ToRelative(s.Path, cs.RootPath), s.Reason)
		}
	}
	fmt.Fprintf(w, "\nExplored in %s\n", cs.Duration.Round(time.Millisecond))
}

func renderFiles(w io.Writer, cs *types.CodebaseStructure) {
	header(w, "Files")
	for _, ext := range cs.Extensions() {
		fmt.Fprintf(w, "%s\n", ext)
		for _, f := range cs.FilesByExtension[ext] {
			fmt.Fprintf(w, "  %s  %s  %s\n", pathutil.ToRelative(f.Path, cs.RootPath), f.Category, plan.HumanSize(f.SizeBytes))
		}
	}
}

func renderAnalysis(w io.Writer, res *analysis.Result, root string) {
	header(w, "Analysis")
	fmt.Fprintf(w, "Target:   %s\n", res.Target)
	fmt.Fprintf(w, "Files:    %d analyzed, %d skipped, %d failed\n", res.Analyzed, res.Skipped, res.Failed)
	fmt.Fprintf(w, "Issues:   %d\n", len(res.Issues))

	for _, o := range res.Outcomes {
		if o.Status == analysis.StatusAnalyzed {
			continue
		}
		warnColor.Fprintf(w, "  %s %s: %s\n", o.Status, pathutil.ToRelative(o.Path, root), o.Reason)
	}

	if len(res.Issues) > 0 {
		fmt.Fprintln(w)
		header(w, "Issues")
		for _, is := range res.Issues {
			sev := string(is.Severity)
			if is.Severity == types.SeverityHigh {
				sev = highColor.Sprint(sev)
			}
			fmt.Fprintf(w, "  %s:%d [%s] %s: %s\n", pathutil.ToRelative(is.Path, root), is.Line, sev, is.Rule, is.Message)
		}
	}
	fmt.Fprintf(w, "\nAnalyzed in %s\n", res.Duration.Round(time.Millisecond))
}

func renderPlan(w io.Writer, p *plan.Plan) {
	header(w, "Exploration plan")
	fmt.Fprintln(w, p.Summary)
	for _, s := range []struct {
		title string
		items []string
	}{
		{"Strengths", p.Strengths},
		{"Weaknesses", p.Weaknesses},
		{"Risks", p.Risks},
		{"Recommendations", p.Recommendations},
	} {
		fmt.Fprintln(w)
		header(w, s.title)
		if len(s.items) == 0 {
			fmt.Fprintln(w, "  none")
			continue
		}
		for _, item := range s.items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}

func renderWatchUpdate(w io.Writer, format string, u watch.Update) {
	if format != formatText {
		r := watchReport{Build: currentBuild(), Events: u.Events, Structure: pathutil.RelativeStructure(u.Structure)}
		if u.Err != nil {
			r.Error = u.Err.Error()
		}
		if format == formatYAML {
			fmt.Fprintln(w, "---")
			_ = writeStructured(w, formatYAML, r)
			return
		}
		// One compact object per line
		_ = json.NewEncoder(w).Encode(r)
		return
	}

	stamp := time.Now().Format("15:04:05")
	if u.Err != nil {
		warnColor.Fprintf(w, "[%s] re-exploration failed: %v\n", stamp, u.Err)
		return
	}
	cs := u.Structure
	line := fmt.Sprintf("[%s] %d files (%s) in %d directories", stamp, cs.TotalFiles, plan.HumanSize(cs.TotalSizeBytes), len(cs.Directories))
	if u.Events > 0 {
		line += fmt.Sprintf(" after %d changed paths", u.Events)
	}
	if cs.Truncated {
		line += " (truncated: " + cs.TruncateReason + ")"
	}
	fmt.Fprintln(w, line)
}
