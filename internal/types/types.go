package types

import (
	"sort"
	"time"
)

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file during a walk
	// Files above this are generated code or binaries in practice and are
	// counted nowhere.

	DefaultAnalysisMaxFileSize = 1024 * 1024 // 1MB per file handed to an analyzer

	// Memory limits
	DefaultMaxMemoryMB = 512

	// Walk limits
	DefaultMaxFileCount    = 10000 // global file cap for one walk
	DefaultMaxDepth        = 20    // directories deeper than this are skipped
	DefaultBatchSize       = 50    // directory entries processed concurrently per batch
	DefaultMaxFilesPerType = 100   // bucket cap per extension

	// Time limits
	DefaultMaxProcessingTime = 5 * time.Minute

	// Analysis limits
	DefaultSampleSize          = 5
	DefaultAnalysisConcurrency = 2

	// MaxSkippedFiles bounds the skipped-file ledger kept on a structure.
	MaxSkippedFiles = 200
)

// Category is the coarse classification of a file.
type Category string

const (
	CategorySource Category = "source"
	CategoryConfig Category = "config"
	CategoryTest   Category = "test"
	CategoryDoc    Category = "doc"
	CategoryOther  Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{CategorySource, CategoryTest, CategoryConfig, CategoryDoc, CategoryOther}

// ParseCategory maps a string to a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// FileInfo describes one file admitted by a walk. Immutable once created.
type FileInfo struct {
	Path      string   `json:"path" yaml:"path"`
	SizeBytes int64    `json:"size_bytes" yaml:"size_bytes"`
	Extension string   `json:"extension" yaml:"extension"`
	Category  Category `json:"category" yaml:"category"`
	Language  string   `json:"language,omitempty" yaml:"language,omitempty"`
}

// DirectoryInfo is the inventory of a single visited directory.
type DirectoryInfo struct {
	Path           string   `json:"path" yaml:"path"`
	FileCount      int      `json:"file_count" yaml:"file_count"`
	TotalSizeBytes int64    `json:"total_size_bytes" yaml:"total_size_bytes"`
	Subdirectories []string `json:"subdirectories,omitempty" yaml:"subdirectories,omitempty"`
}

// SkippedFile records a file the walk saw but did not count.
type SkippedFile struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// LanguageCount is a detected language with the number of files using it.
type LanguageCount struct {
	Language string `json:"language" yaml:"language"`
	Files    int    `json:"files" yaml:"files"`
}

// CodebaseStructure is the aggregate result of one walk.
//
// TotalFiles and TotalSizeBytes count every admitted file, while each
// FilesByExtension bucket holds at most MaxFilesPerType entries. Buckets are
// representative samples; the totals are the inventory.
type CodebaseStructure struct {
	RunID                string                `json:"run_id" yaml:"run_id"`
	RootPath             string                `json:"root_path" yaml:"root_path"`
	TotalFiles           int                   `json:"total_files" yaml:"total_files"`
	TotalSizeBytes       int64                 `json:"total_size_bytes" yaml:"total_size_bytes"`
	FilesByExtension     map[string][]FileInfo `json:"files_by_extension" yaml:"files_by_extension"`
	Directories          []DirectoryInfo       `json:"directories" yaml:"directories"`
	DetectedLanguages    []LanguageCount       `json:"detected_languages" yaml:"detected_languages"`
	FrameworkHints       []string              `json:"framework_hints" yaml:"framework_hints"`
	ArchitecturePatterns []string              `json:"architecture_patterns" yaml:"architecture_patterns"`
	SkippedFiles         []SkippedFile         `json:"skipped_files,omitempty" yaml:"skipped_files,omitempty"`

	// Truncated is set when the walk stopped early on a budget limit.
	Truncated      bool          `json:"truncated" yaml:"truncated"`
	TruncateReason string        `json:"truncate_reason,omitempty" yaml:"truncate_reason,omitempty"`
	ExploredAt     time.Time     `json:"explored_at" yaml:"explored_at"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

// NewCodebaseStructure creates an empty structure for root.
func NewCodebaseStructure(root string) *CodebaseStructure {
	return &CodebaseStructure{
		RootPath:         root,
		FilesByExtension: make(map[string][]FileInfo),
	}
}

// Extensions returns bucket keys in sorted order.
func (cs *CodebaseStructure) Extensions() []string {
	exts := make([]string, 0, len(cs.FilesByExtension))
	for ext := range cs.FilesByExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IndexedFiles returns the number of files held across all buckets.
func (cs *CodebaseStructure) IndexedFiles() int {
	n := 0
	for _, files := range cs.FilesByExtension {
		n += len(files)
	}
	return n
}

// FilesInCategory returns bucketed files of the given category sorted by path.
func (cs *CodebaseStructure) FilesInCategory(c Category) []FileInfo {
	var out []FileInfo
	for _, files := range cs.FilesByExtension {
		for _, f := range files {
			if f.Category == c {
				out = append(out, f)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CategoryCounts counts bucketed files per category.
func (cs *CodebaseStructure) CategoryCounts() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, files := range cs.FilesByExtension {
		for _, f := range files {
			counts[f.Category]++
		}
	}
	return counts
}

// Freeze sorts every slice so the structure serializes deterministically.
// Called once by the walk that owns the structure.
func (cs *CodebaseStructure) Freeze() {
	for ext := range cs.FilesByExtension {
		files := cs.FilesByExtension[ext]
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	}
	sort.Slice(cs.Directories, func(i, j int) bool { return cs.Directories[i].Path < cs.Directories[j].Path })
	for i := range cs.Directories {
		sort.Strings(cs.Directories[i].Subdirectories)
	}
	sort.Slice(cs.SkippedFiles, func(i, j int) bool { return cs.SkippedFiles[i].Path < cs.SkippedFiles[j].Path })
}

// Severity of an Issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is a finding reported by an analyzer. The exploration core only
// counts and forwards issues.
type Issue struct {
	Fingerprint uint64   `json:"fingerprint" yaml:"fingerprint"`
	Path        string   `json:"path" yaml:"path"`
	Line        int      `json:"line,omitempty" yaml:"line,omitempty"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Rule        string   `json:"rule" yaml:"rule"`
	Message     string   `json:"message" yaml:"message"`
}
