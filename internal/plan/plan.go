// Package plan turns an explored structure and its analysis issues into a
// short assessment: strengths, weaknesses, risks and recommendations.
package plan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/scout/internal/types"
)

// Thresholds tune the heuristics. Zero values fall back to defaults.
type Thresholds struct {
	MinTestRatio        float64 // below this the test ratio is a weakness
	GoodTestRatio       float64 // at or above this it is a strength
	MaxIssuesPerFile    float64 // issue density above this is a risk
	LargeCodebaseFiles  int
	PolyglotLanguages   int
	HighSeverityIsRisky int // this many high-severity issues make a risk
}

// DefaultThresholds returns the built-in heuristics.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTestRatio:        0.1,
		GoodTestRatio:       0.3,
		MaxIssuesPerFile:    5,
		LargeCodebaseFiles:  5000,
		PolyglotLanguages:   5,
		HighSeverityIsRisky: 1,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MinTestRatio <= 0 {
		t.MinTestRatio = d.MinTestRatio
	}
	if t.GoodTestRatio <= 0 {
		t.GoodTestRatio = d.GoodTestRatio
	}
	if t.MaxIssuesPerFile <= 0 {
		t.MaxIssuesPerFile = d.MaxIssuesPerFile
	}
	if t.LargeCodebaseFiles <= 0 {
		t.LargeCodebaseFiles = d.LargeCodebaseFiles
	}
	if t.PolyglotLanguages <= 0 {
		t.PolyglotLanguages = d.PolyglotLanguages
	}
	if t.HighSeverityIsRisky <= 0 {
		t.HighSeverityIsRisky = d.HighSeverityIsRisky
	}
	return t
}

// Stats are the figures the plan was derived from.
type Stats struct {
	TotalFiles     int                    `json:"total_files" yaml:"total_files"`
	TotalSizeBytes int64                  `json:"total_size_bytes" yaml:"total_size_bytes"`
	Directories    int                    `json:"directories" yaml:"directories"`
	Languages      int                    `json:"languages" yaml:"languages"`
	Categories     map[types.Category]int `json:"categories" yaml:"categories"`
	TestRatio      float64                `json:"test_ratio" yaml:"test_ratio"`
	Issues         map[types.Severity]int `json:"issues" yaml:"issues"`
	FilesWithIssue int                    `json:"files_with_issues" yaml:"files_with_issues"`
}

// Plan is the derived report. Every list is non-nil.
type Plan struct {
	Root            string   `json:"root" yaml:"root"`
	Summary         string   `json:"summary" yaml:"summary"`
	Strengths       []string `json:"strengths" yaml:"strengths"`
	Weaknesses      []string `json:"weaknesses" yaml:"weaknesses"`
	Risks           []string `json:"risks" yaml:"risks"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
	Stats           Stats    `json:"stats" yaml:"stats"`
}

// Builder derives plans. Build is a pure function of its inputs.
type Builder struct {
	th Thresholds
}

// NewBuilder creates a builder with th.
func NewBuilder(th Thresholds) *Builder {
	return &Builder{th: th.withDefaults()}
}

// Build derives a plan from cs and issues. Category figures come from the
// extension buckets, which are samples when MaxFilesPerType was reached.
func (b *Builder) Build(cs *types.CodebaseStructure, issues []types.Issue) *Plan {
	st := stats(cs, issues)
	p := &Plan{
		Root:            cs.RootPath,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Risks:           []string{},
		Recommendations: []string{},
		Stats:           st,
	}

	source := st.Categories[types.CategorySource]
	tests := st.Categories[types.CategoryTest]
	docs := st.Categories[types.CategoryDoc]
	configs := st.Categories[types.CategoryConfig]

	// Strengths
	if tests > 0 && st.TestRatio >= b.th.GoodTestRatio {
		p.Strengths = append(p.Strengths, fmt.Sprintf("Tests make up %s of code files", percent(st.TestRatio)))
	}
	if docs > 0 {
		p.Strengths = append(p.Strengths, fmt.Sprintf("Documentation present (%d files)", docs))
	}
	if configs > 0 {
		p.Strengths = append(p.Strengths, fmt.Sprintf("Project configuration present (%d files)", configs))
	}
	if len(cs.ArchitecturePatterns) > 0 {
		p.Strengths = append(p.Strengths, "Recognisable structure: "+strings.Join(cs.ArchitecturePatterns, ", "))
	}
	if len(cs.FrameworkHints) > 0 {
		p.Strengths = append(p.Strengths, "Known stack: "+strings.Join(cs.FrameworkHints, ", "))
	}

	// Weaknesses
	switch {
	case source > 0 && tests == 0:
		p.Weaknesses = append(p.Weaknesses, "No test files found")
		p.Recommendations = append(p.Recommendations, "Add tests alongside the main source directories")
	case tests > 0 && st.TestRatio < b.th.MinTestRatio:
		p.Weaknesses = append(p.Weaknesses, fmt.Sprintf("Low test ratio (%s of code files)", percent(st.TestRatio)))
		p.Recommendations = append(p.Recommendations, "Raise test coverage of the least tested directories")
	}
	if docs == 0 && st.TotalFiles > 0 {
		p.Weaknesses = append(p.Weaknesses, "No documentation files")
		p.Recommendations = append(p.Recommendations, "Add a README describing setup and layout")
	}
	if st.Languages >= b.th.PolyglotLanguages {
		p.Weaknesses = append(p.Weaknesses, fmt.Sprintf("%d languages in use", st.Languages))
	}
	if st.TotalFiles == 0 {
		p.Weaknesses = append(p.Weaknesses, "No files were admitted")
	}

	// Risks
	if high := st.Issues[types.SeverityHigh]; high >= b.th.HighSeverityIsRisky {
		p.Risks = append(p.Risks, fmt.Sprintf("%d high-severity issues", high))
		p.Recommendations = append(p.Recommendations, "Review high-severity findings first (credentials, private keys)")
	}
	if st.FilesWithIssue > 0 {
		density := float64(len(issues)) / float64(st.FilesWithIssue)
		if density > b.th.MaxIssuesPerFile {
			p.Risks = append(p.Risks, fmt.Sprintf("Issue density of %.1f per affected file", density))
			p.Recommendations = append(p.Recommendations, "Schedule cleanup of the files with the most findings")
		}
	}
	if cs.Truncated {
		p.Risks = append(p.Risks, "Exploration stopped early ("+cs.TruncateReason+"); totals are partial")
		p.Recommendations = append(p.Recommendations, "Narrow the scope with exclusions or raise the budget and explore again")
	}
	if n := len(cs.SkippedFiles); n > 0 {
		p.Risks = append(p.Risks, fmt.Sprintf("%d files skipped (%s)", n, skipReasons(cs.SkippedFiles)))
	}
	if st.TotalFiles >= b.th.LargeCodebaseFiles {
		p.Risks = append(p.Risks, fmt.Sprintf("Large codebase (%d files)", st.TotalFiles))
	}

	p.Summary = summary(cs, st)
	return p
}

func stats(cs *types.CodebaseStructure, issues []types.Issue) Stats {
	st := Stats{
		TotalFiles:     cs.TotalFiles,
		TotalSizeBytes: cs.TotalSizeBytes,
		Directories:    len(cs.Directories),
		Languages:      len(cs.DetectedLanguages),
		Categories:     cs.CategoryCounts(),
		Issues:         make(map[types.Severity]int),
	}
	if code := st.Categories[types.CategorySource] + st.Categories[types.CategoryTest]; code > 0 {
		st.TestRatio = float64(st.Categories[types.CategoryTest]) / float64(code)
	}
	files := make(map[string]bool)
	for _, is := range issues {
		st.Issues[is.Severity]++
		files[is.Path] = true
	}
	st.FilesWithIssue = len(files)
	return st
}

func summary(cs *types.CodebaseStructure, st Stats) string {
	var langs []string
	for i, lc := range cs.DetectedLanguages {
		if i == 3 {
			break
		}
		langs = append(langs, fmt.Sprintf("%s (%d)", lc.Language, lc.Files))
	}
	s := fmt.Sprintf("%s: %d files, %s, in %d directories", filepath.Base(cs.RootPath), st.TotalFiles, HumanSize(st.TotalSizeBytes), st.Directories)
	if len(langs) > 0 {
		s += "; mainly " + strings.Join(langs, ", ")
	}
	total := 0
	for _, n := range st.Issues {
		total += n
	}
	if total > 0 {
		s += fmt.Sprintf("; %d issues in %d sampled files", total, st.FilesWithIssue)
	}
	return s + "."
}

func skipReasons(skipped []types.SkippedFile) string {
	counts := make(map[string]int)
	for _, s := range skipped {
		counts[s.Reason]++
	}
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, fmt.Sprintf("%s: %d", r, counts[r]))
	}
	return strings.Join(parts, ", ")
}

func percent(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}

// HumanSize formats a byte count with binary units, e.g. "1.5 KB".
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
