package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/scout/internal/types"
)

func structure(files ...types.FileInfo) *types.CodebaseStructure {
	cs := types.NewCodebaseStructure("/work/shop")
	for _, f := range files {
		cs.FilesByExtension[f.Extension] = append(cs.FilesByExtension[f.Extension], f)
		cs.TotalFiles++
		cs.TotalSizeBytes += f.SizeBytes
	}
	cs.Directories = []types.DirectoryInfo{{Path: "/work/shop", FileCount: len(files)}}
	return cs
}

func file(path string, cat types.Category) types.FileInfo {
	ext := path[strings.LastIndex(path, "."):]
	return types.FileInfo{Path: "/work/shop/" + path, Extension: ext, Category: cat, SizeBytes: 512}
}

func TestBuildHealthyProject(t *testing.T) {
	cs := structure(
		file("main.go", types.CategorySource),
		file("main_test.go", types.CategoryTest),
		file("README.md", types.CategoryDoc),
		file("config.yaml", types.CategoryConfig),
	)
	cs.DetectedLanguages = []types.LanguageCount{{Language: "Go", Files: 2}}
	cs.ArchitecturePatterns = []string{"Go standard layout"}
	cs.FrameworkHints = []string{"Go"}

	p := NewBuilder(Thresholds{}).Build(cs, nil)

	assert.Equal(t, []string{
		"Tests make up 50% of code files",
		"Documentation present (1 files)",
		"Project configuration present (1 files)",
		"Recognisable structure: Go standard layout",
		"Known stack: Go",
	}, p.Strengths)
	assert.Empty(t, p.Weaknesses)
	assert.Empty(t, p.Risks)
	assert.NotNil(t, p.Recommendations)
	assert.Equal(t, "shop: 4 files, 2.0 KB, in 1 directories; mainly Go (2).", p.Summary)
	assert.InDelta(t, 0.5, p.Stats.TestRatio, 1e-9)
}

func TestBuildWeakProject(t *testing.T) {
	var files []types.FileInfo
	for i := 0; i < 5; i++ {
		files = append(files, file(string(rune('a'+i))+".py", types.CategorySource))
	}
	cs := structure(files...)

	p := NewBuilder(DefaultThresholds()).Build(cs, nil)

	assert.Contains(t, p.Weaknesses, "No test files found")
	assert.Contains(t, p.Weaknesses, "No documentation files")
	assert.Contains(t, p.Recommendations, "Add tests alongside the main source directories")
	assert.Contains(t, p.Recommendations, "Add a README describing setup and layout")
}

func TestBuildLowTestRatio(t *testing.T) {
	files := []types.FileInfo{file("x_test.ts", types.CategoryTest)}
	for i := 0; i < 19; i++ {
		files = append(files, file(string(rune('a'+i))+".ts", types.CategorySource))
	}

	p := NewBuilder(DefaultThresholds()).Build(structure(files...), nil)
	assert.Contains(t, p.Weaknesses, "Low test ratio (5% of code files)")
}

func TestBuildRisks(t *testing.T) {
	cs := structure(file("app.js", types.CategorySource), file("README.md", types.CategoryDoc))
	cs.Truncated = true
	cs.TruncateReason = "file limit 2 reached"
	cs.SkippedFiles = []types.SkippedFile{
		{Path: "/work/shop/big.bin", Reason: "too_large"},
		{Path: "/work/shop/huge.bin", Reason: "too_large"},
		{Path: "/work/shop/locked.js", Reason: "unreadable"},
	}
	var issues []types.Issue
	for i := 0; i < 7; i++ {
		issues = append(issues, types.Issue{Path: "/work/shop/app.js", Severity: types.SeverityLow, Rule: "todo-marker"})
	}
	issues = append(issues, types.Issue{Path: "/work/shop/app.js", Severity: types.SeverityHigh, Rule: "hardcoded-credential"})

	p := NewBuilder(DefaultThresholds()).Build(cs, issues)

	assert.Equal(t, []string{
		"1 high-severity issues",
		"Issue density of 8.0 per affected file",
		"Exploration stopped early (file limit 2 reached); totals are partial",
		"3 files skipped (too_large: 2, unreadable: 1)",
	}, p.Risks)
	assert.Equal(t, 7, p.Stats.Issues[types.SeverityLow])
	assert.Equal(t, 1, p.Stats.FilesWithIssue)
	assert.Contains(t, p.Summary, "8 issues in 1 sampled files")
}

func TestBuildEmptyStructure(t *testing.T) {
	p := NewBuilder(DefaultThresholds()).Build(types.NewCodebaseStructure("/work/empty"), nil)
	assert.Equal(t, []string{"No files were admitted"}, p.Weaknesses)
	assert.Equal(t, "empty: 0 files, 0 B, in 0 directories.", p.Summary)
}

func TestMarkdown(t *testing.T) {
	p := &Plan{
		Summary:    "shop: 1 files",
		Strengths:  []string{"Documentation present (1 files)"},
		Weaknesses: []string{},
		Risks:      []string{"3 files skipped"},
	}

	md := p.Markdown()
	require.True(t, strings.HasPrefix(md, "# Exploration plan\n\nshop: 1 files\n"))
	assert.Contains(t, md, "## Strengths\n\n- Documentation present (1 files)\n")
	assert.Contains(t, md, "## Weaknesses\n\n_None._\n")
	assert.Contains(t, md, "## Risks\n\n- 3 files skipped\n")
	assert.Contains(t, md, "## Recommendations\n\n_None._\n")
}

func TestHumanSize(t *testing.T) {
	for n, want := range map[int64]string{0: "0 B", 1023: "1023 B", 1536: "1.5 KB", 10 << 20: "10.0 MB"} {
		assert.Equal(t, want, HumanSize(n))
	}
}
