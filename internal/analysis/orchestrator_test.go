package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/scout/internal/debug"
	scouterrors "github.com/standardbeagle/scout/internal/errors"
	"github.com/standardbeagle/scout/internal/explorer"
	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/testhelpers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func explore(t *testing.T, root string) *types.CodebaseStructure {
	t.Helper()
	cs, err := explorer.NewWalker(explorer.DefaultOptions(), nil, nil, nil).Walk(context.Background(), root)
	require.NoError(t, err)
	return cs
}

// twoIssues reports two issues per file without a path, so the orchestrator
// fills it in.
var twoIssues = AnalyzerFunc(func(_ context.Context, _ []byte, path string) ([]types.Issue, error) {
	return []types.Issue{
		{Rule: "a", Severity: types.SeverityLow, Fingerprint: Fingerprint("a", path, "")},
		{Rule: "b", Severity: types.SeverityHigh, Fingerprint: Fingerprint("b", path, "")},
	}, nil
})

func TestRunSamplesDeterministically(t *testing.T) {
	tree := testhelpers.NewTree(t)
	for i := 6; i >= 0; i-- {
		tree.Files(fmt.Sprintf("src/f%d.go", i))
	}
	cs := explore(t, tree.Root)

	opts := DefaultOptions()
	opts.Target = ".go"
	opts.SampleSize = 3
	res, err := NewOrchestrator(twoIssues, nil, opts, nil).Run(context.Background(), cs)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 3)
	for i, out := range res.Outcomes {
		assert.Equal(t, tree.Path(fmt.Sprintf("src/f%d.go", i)), out.Path)
		assert.Equal(t, StatusAnalyzed, out.Status)
		assert.Equal(t, 2, out.Issues)
	}
	assert.Equal(t, 3, res.Analyzed)
	assert.Len(t, res.Issues, 6)

	seen := make(map[uint64]bool)
	for _, is := range res.Issues {
		assert.NotEmpty(t, is.Path)
		assert.False(t, seen[is.Fingerprint], "issue reported twice")
		seen[is.Fingerprint] = true
	}
}

func TestRunCategoryTarget(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("app.go", "app_test.go", "README.md", "Makefile")
	cs := explore(t, tree.Root)

	opts := DefaultOptions()
	opts.Target = "test"
	o := NewOrchestrator(twoIssues, nil, opts, nil)

	candidates, err := o.Candidates(cs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, tree.Path("app_test.go"), candidates[0].Path)
}

func TestRunInvalidTarget(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go")
	opts := DefaultOptions()
	opts.Target = "sources"

	_, err := NewOrchestrator(nil, nil, opts, nil).Run(context.Background(), explore(t, tree.Root))
	require.Error(t, err)
	var cfgErr *scouterrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "analysis.target", cfgErr.Field)
}

func TestRunRespectsConcurrencyCap(t *testing.T) {
	tree := testhelpers.NewTree(t)
	for i := 0; i < 6; i++ {
		tree.Files(fmt.Sprintf("f%d.go", i))
	}
	cs := explore(t, tree.Root)

	var inFlight, peak atomic.Int32
	slow := AnalyzerFunc(func(ctx context.Context, _ []byte, _ string) ([]types.Issue, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		return nil, nil
	})

	opts := DefaultOptions()
	opts.SampleSize = 6
	opts.Concurrency = 2
	res, err := NewOrchestrator(slow, nil, opts, nil).Run(context.Background(), cs)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Analyzed)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, res.Duration, 90*time.Millisecond)
}

func TestRunIsolatesAnalyzerFailures(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go", "boom.go", "err.go", "z.go")
	cs := explore(t, tree.Root)

	flaky := AnalyzerFunc(func(ctx context.Context, content []byte, path string) ([]types.Issue, error) {
		switch filepath.Base(path) {
		case "err.go":
			return nil, errors.New("parse failure")
		case "boom.go":
			panic("nil map")
		}
		return twoIssues(ctx, content, path)
	})

	rec := debug.NewRecorder()
	res, err := NewOrchestrator(flaky, nil, DefaultOptions(), rec).Run(context.Background(), cs)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Analyzed)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Issues, 4)
	assert.Len(t, rec.Filter(debug.LevelWarn, "analysis failed"), 2)

	for _, is := range res.Issues {
		assert.NotEqual(t, "err.go", filepath.Base(is.Path))
		assert.NotEqual(t, "boom.go", filepath.Base(is.Path))
	}
}

func TestRunRechecksFilesystem(t *testing.T) {
	outside := testhelpers.NewTree(t).Files("secret.go")
	tree := testhelpers.NewTree(t).Files("a.go", "grown.go", "gone.go", "swapped.go").
		File("blob.go", "package blob\n")
	cs := explore(t, tree.Root)

	// mutate the tree between walk and analysis
	tree.SizedFile("grown.go", 4096)
	require.NoError(t, os.Remove(tree.Path("gone.go")))
	require.NoError(t, os.Remove(tree.Path("swapped.go")))
	tree.Symlink(outside.Path("secret.go"), "swapped.go")
	require.NoError(t, os.WriteFile(tree.Path("blob.go"), []byte{0x7f, 'E', 'L', 'F', 0, 0, 1}, 0o644))

	opts := DefaultOptions()
	opts.MaxFileSize = 1024
	rec := debug.NewRecorder()
	res, err := NewOrchestrator(twoIssues, nil, opts, rec).Run(context.Background(), cs)
	require.NoError(t, err)

	status := make(map[string]Status)
	for _, out := range res.Outcomes {
		status[filepath.Base(out.Path)] = out.Status
	}
	assert.Equal(t, map[string]Status{
		"a.go":       StatusAnalyzed,
		"blob.go":    StatusSkipped,
		"gone.go":    StatusSkipped,
		"grown.go":   StatusSkipped,
		"swapped.go": StatusSkipped,
	}, status)
	assert.Equal(t, 1, res.Analyzed)
	assert.Equal(t, 4, res.Skipped)
	assert.Len(t, rec.Filter(debug.LevelWarn, "skipping path outside root"), 2)
	assert.Len(t, rec.Filter(debug.LevelDebug, "skipping oversized file"), 1)
}

func TestRunAnalyzesSymlinksInsideRoot(t *testing.T) {
	tree := testhelpers.NewTree(t).
		Files("lib/real.go").
		Symlink("lib/real.go", "alias.go")
	cs := explore(t, tree.Root)

	opts := DefaultOptions()
	opts.Target = ".go"
	rec := debug.NewRecorder()
	res, err := NewOrchestrator(twoIssues, nil, opts, rec).Run(context.Background(), cs)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Analyzed)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, rec.Filter(debug.LevelWarn, "skipping path outside root"))
}

func TestRunCancelled(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go", "b.go", "c.go")
	cs := explore(t, tree.Root)

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	blocking := AnalyzerFunc(func(ctx context.Context, _ []byte, _ string) ([]types.Issue, error) {
		once.Do(cancel)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	opts := DefaultOptions()
	opts.Concurrency = 1
	_, err := NewOrchestrator(blocking, nil, opts, nil).Run(ctx, cs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmptyStructure(t *testing.T) {
	res, err := NewOrchestrator(nil, nil, DefaultOptions(), nil).Run(context.Background(), types.NewCodebaseStructure(t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Zero(t, res.Analyzed)
}
