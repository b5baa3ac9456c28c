package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/scout/internal/debug"
	"github.com/standardbeagle/scout/internal/explorer"
	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/testhelpers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type updates struct {
	mu   sync.Mutex
	list []Update
}

func (u *updates) add(up Update) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.list = append(u.list, up)
}

func (u *updates) snapshot() []Update {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Update(nil), u.list...)
}

func (u *updates) len() int { return len(u.snapshot()) }

func walkerFor(root string) ExploreFunc {
	return func(ctx context.Context) (*types.CodebaseStructure, error) {
		return explorer.NewWalker(explorer.DefaultOptions(), nil, nil, nil).Walk(ctx, root)
	}
}

func startWatcher(t *testing.T, root string, explore ExploreFunc, opts Options) (*Watcher, *updates, *debug.Recorder) {
	t.Helper()
	got := &updates{}
	opts.OnUpdate = got.add
	rec := debug.NewRecorder()
	w, err := New(root, explore, opts, rec)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })
	return w, got, rec
}

func TestWatchReexploresOnChange(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go")
	_, got, _ := startWatcher(t, tree.Root, walkerFor(tree.Root), Options{Debounce: 50 * time.Millisecond})

	tree.Files("b.go")
	testhelpers.WaitFor(t, func() bool { return got.len() >= 1 }, 5*time.Second)

	first := got.snapshot()[0]
	require.NoError(t, first.Err)
	assert.Equal(t, 2, first.Structure.TotalFiles)
	assert.GreaterOrEqual(t, first.Events, 1)
}

func TestWatchDebouncesBursts(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go")
	w, got, _ := startWatcher(t, tree.Root, walkerFor(tree.Root), Options{Debounce: 200 * time.Millisecond})

	for i := 0; i < 10; i++ {
		tree.Files(fmt.Sprintf("burst%d.go", i))
	}
	testhelpers.WaitFor(t, func() bool { return got.len() >= 1 }, 5*time.Second)
	time.Sleep(400 * time.Millisecond)

	all := got.snapshot()
	require.Len(t, all, 1)
	assert.Equal(t, 11, all[0].Structure.TotalFiles)
	assert.Equal(t, 10, all[0].Events)
	assert.Equal(t, int64(1), w.Stats().Walks)
}

func TestWatchFollowsNewDirectories(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go")
	_, got, _ := startWatcher(t, tree.Root, walkerFor(tree.Root), Options{Debounce: 50 * time.Millisecond})

	tree.Dir("pkg")
	testhelpers.WaitFor(t, func() bool { return got.len() >= 1 }, 5*time.Second)

	tree.Files("pkg/b.go")
	testhelpers.WaitFor(t, func() bool {
		all := got.snapshot()
		last := all[len(all)-1]
		return last.Err == nil && last.Structure.TotalFiles == 2
	}, 5*time.Second)
}

func TestWatchIgnoresExcludedDirectories(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go", "node_modules/x/index.js", "gen/api.go")
	w, got, _ := startWatcher(t, tree.Root, walkerFor(tree.Root), Options{
		Debounce: 30 * time.Millisecond,
		Exclude:  []string{"gen/**"},
	})

	assert.Equal(t, 1, w.Stats().Watched)

	require.NoError(t, os.WriteFile(tree.Path("node_modules/x/index.js"), []byte("changed"), 0o644))
	require.NoError(t, os.WriteFile(tree.Path("gen/api.go"), []byte("package gen // changed\n"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, got.len())
}

func TestWatchReportsExploreErrors(t *testing.T) {
	tree := testhelpers.NewTree(t).Files("a.go")
	failing := func(context.Context) (*types.CodebaseStructure, error) {
		return nil, errors.New("budget misconfigured")
	}
	w, got, rec := startWatcher(t, tree.Root, failing, Options{Debounce: 30 * time.Millisecond})

	tree.Files("b.go")
	testhelpers.WaitFor(t, func() bool { return got.len() >= 1 }, 5*time.Second)

	assert.EqualError(t, got.snapshot()[0].Err, "budget misconfigured")
	testhelpers.WaitFor(t, func() bool { return w.Stats().Errors >= 1 }, time.Second)
	assert.NotEmpty(t, rec.Filter(debug.LevelWarn, "re-exploration failed"))
}

func TestWatchStopIsIdempotent(t *testing.T) {
	tree := testhelpers.NewTree(t)
	w, err := New(tree.Root, walkerFor(tree.Root), Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatchStopWithoutStart(t *testing.T) {
	w, err := New(t.TempDir(), walkerFor("."), Options{}, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}

func TestNewRequiresExplore(t *testing.T) {
	_, err := New(t.TempDir(), nil, Options{}, nil)
	assert.Error(t, err)
}

func TestWatchContextCancel(t *testing.T) {
	tree := testhelpers.NewTree(t)
	w, err := New(tree.Root, walkerFor(tree.Root), Options{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()
	assert.NoError(t, w.Stop())
}

func TestDebouncer(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	d.add("/a")
	d.add("/a")
	d.add("/b")
	assert.Equal(t, 2, d.size())

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
	assert.Equal(t, 2, d.take())
	assert.Zero(t, d.size())
}
