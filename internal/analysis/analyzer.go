// Package analysis runs a per-file analyzer over a bounded sample of an
// explored codebase.
package analysis

import (
	"context"

	"github.com/standardbeagle/scout/internal/types"
)

// Analyzer inspects one file's content and reports issues. Implementations
// must be safe for concurrent use; the orchestrator calls Analyze from
// several goroutines.
type Analyzer interface {
	Analyze(ctx context.Context, content []byte, path string) ([]types.Issue, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, content []byte, path string) ([]types.Issue, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, content []byte, path string) ([]types.Issue, error) {
	return f(ctx, content, path)
}

// PathChecker re-validates that a path still resolves inside the root.
type PathChecker interface {
	IsSafeToRead(path, root string) bool
}
