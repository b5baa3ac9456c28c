package explorer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/scout/internal/classifier"
	"github.com/standardbeagle/scout/internal/config"
	"github.com/standardbeagle/scout/internal/debug"
	scouterrors "github.com/standardbeagle/scout/internal/errors"
	"github.com/standardbeagle/scout/internal/resource"
	"github.com/standardbeagle/scout/internal/security"
	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/pkg/pathutil"
)

// Skip reasons recorded in CodebaseStructure.SkippedFiles
const (
	SkipTooLarge   = "too_large"
	SkipUnreadable = "unreadable"
	SkipStat       = "stat_failed"
)

// Walker builds a CodebaseStructure from a root directory. A Walker may be
// reused; each Walk owns its own structure.
type Walker struct {
	opts       Options
	monitor    *resource.Monitor
	classifier *classifier.Classifier
	validator  *security.PathValidator
	logger     debug.Logger
	now        func() time.Time
}

// NewWalker creates a walker. A nil monitor gets a fresh default-budget
// monitor per walk; a nil classifier uses the default table.
func NewWalker(opts Options, monitor *resource.Monitor, cls *classifier.Classifier, logger debug.Logger) *Walker {
	if cls == nil {
		cls = classifier.Default()
	}
	return &Walker{
		opts:       opts.withDefaults(),
		monitor:    monitor,
		classifier: cls,
		validator:  security.NewPathValidator(),
		logger:     debug.OrNop(logger),
		now:        time.Now,
	}
}

// walk is the state of one Walk call.
type walk struct {
	w        *Walker
	root     string
	monitor  *resource.Monitor
	maxFiles int
	match    *matcher
	ignore   *config.GitignoreParser

	stopped atomic.Bool

	mu        sync.Mutex // guards cs, languages and every DirectoryInfo
	cs        *types.CodebaseStructure
	languages map[string]int
}

// Walk explores root. Root problems (missing, not a directory, unreadable)
// fail before traversal with *errors.ExploreError. Problems below the root
// are logged and skipped. A cancelled ctx stops scheduling new entries and
// its error is returned.
func (w *Walker) Walk(ctx context.Context, root string) (*types.CodebaseStructure, error) {
	start := w.now()

	realRoot, err := w.validator.ValidateRoot(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.ReadDir(realRoot); err != nil {
		return nil, scouterrors.NewExploreError(scouterrors.ErrorTypeRootUnsafe, root, err)
	}

	monitor := w.monitor
	if monitor == nil {
		if monitor, err = resource.NewMonitor(resource.DefaultBudget(), resource.WithLogger(w.logger)); err != nil {
			return nil, err
		}
	}

	s := &walk{
		w:         w,
		root:      realRoot,
		monitor:   monitor,
		maxFiles:  monitor.Budget().MaxFiles,
		match:     newMatcher(w.opts.Include, w.opts.Exclude),
		cs:        types.NewCodebaseStructure(realRoot),
		languages: make(map[string]int),
	}
	if w.opts.RespectGitignore {
		s.ignore = config.NewGitignoreParser()
		if err := s.ignore.LoadGitignore(realRoot); err != nil {
			w.logger.Warn(debug.ComponentWalk, "could not read .gitignore", "error", err)
		}
	}

	debug.LogWalk("walking %s (max depth %d, max files %d)\n", realRoot, w.opts.MaxDepth, s.maxFiles)

	if _, err := s.walkDir(ctx, realRoot, 0); err != nil {
		return nil, err
	}

	cs := s.cs
	cs.RunID = uuid.NewString()
	cs.ExploredAt = start
	cs.Duration = w.now().Sub(start)
	cs.Freeze()
	cs.DetectedLanguages = languageCounts(s.languages)
	cs.FrameworkHints = detectFrameworks(realRoot)
	cs.ArchitecturePatterns = detectArchitecture(realRoot, cs.Directories)

	w.logger.Info(debug.ComponentWalk, "exploration complete",
		"root", realRoot,
		"files", cs.TotalFiles,
		"indexed", cs.IndexedFiles(),
		"directories", len(cs.Directories),
		"skipped", len(cs.SkippedFiles),
		"truncated", cs.Truncated,
		"duration", cs.Duration.Round(time.Millisecond))
	return cs, nil
}

type entry struct {
	path  string
	isDir bool
	info  fs.FileInfo // nil for directories
}

// walkDir visits dir and reports whether it was retained in the structure.
func (s *walk) walkDir(ctx context.Context, dir string, depth int) (bool, error) {
	opts := s.w.opts
	if depth > opts.MaxDepth {
		debug.LogWalk("depth %d exceeds %d, skipping %s\n", depth, opts.MaxDepth, dir)
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.stopped.Load() {
		return false, nil
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		s.w.logger.Warn(debug.ComponentWalk, "skipping unreadable directory", "path", s.rel(dir), "error", err)
		return false, nil
	}

	info := &types.DirectoryInfo{Path: dir}
	entries := s.partition(dir, dirEntries)

	for start := 0; start < len(entries); start += opts.BatchSize {
		if s.stopped.Load() {
			break
		}
		end := min(start+opts.BatchSize, len(entries))

		g, gctx := errgroup.WithContext(ctx)
		for _, e := range entries[start:end] {
			e := e
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if !e.isDir {
					s.processFile(e.path, e.info, info)
					return nil
				}
				retained, err := s.walkDir(gctx, e.path, depth+1)
				if err != nil {
					return err
				}
				if retained {
					s.mu.Lock()
					info.Subdirectories = append(info.Subdirectories, e.path)
					s.mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if info.FileCount == 0 && len(info.Subdirectories) == 0 {
		return false, nil
	}
	s.cs.Directories = append(s.cs.Directories, *info)
	return true, nil
}

// partition splits a listing into files and walkable subdirectories,
// dropping ignored names, excluded paths and unfollowed symlinks.
func (s *walk) partition(dir string, dirEntries []os.DirEntry) []entry {
	var files, dirs []entry
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())
		rel := s.rel(path)

		if de.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				s.w.logger.Debug(debug.ComponentWalk, "skipping broken symlink", "path", rel, "error", err)
				continue
			}
			if target.IsDir() {
				if s.followDir(path, rel, de.Name()) {
					dirs = append(dirs, entry{path: path, isDir: true})
				}
				continue
			}
			if s.keepFile(rel) {
				files = append(files, entry{path: path, info: target})
			}
			continue
		}

		if de.IsDir() {
			if s.keepDir(rel, de.Name()) {
				dirs = append(dirs, entry{path: path, isDir: true})
			}
			continue
		}
		if !de.Type().IsRegular() {
			continue
		}
		if !s.keepFile(rel) {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			s.w.logger.Warn(debug.ComponentWalk, "skipping file", "path", rel, "error", err)
			s.recordSkip(path, SkipStat)
			continue
		}
		files = append(files, entry{path: path, info: fi})
	}
	return append(files, dirs...)
}

func (s *walk) keepDir(rel, name string) bool {
	if IsIgnoredDir(name) {
		debug.LogWalk("ignoring directory %s\n", rel)
		return false
	}
	if s.match.excluded(rel, true) {
		debug.LogWalk("excluded directory %s\n", rel)
		return false
	}
	if s.ignore != nil && s.ignore.ShouldIgnore(rel, true) {
		debug.LogWalk("gitignored directory %s\n", rel)
		return false
	}
	return true
}

// followDir applies keepDir to a symlinked directory and additionally
// refuses links that are disabled, escape the root, or point back at one of
// their own ancestors.
func (s *walk) followDir(path, rel, name string) bool {
	if !s.w.opts.FollowSymlinks {
		debug.LogWalk("not following symlinked directory %s\n", rel)
		return false
	}
	if !s.keepDir(rel, name) {
		return false
	}
	if !s.w.validator.IsSafeToRead(path, s.root) {
		s.w.logger.Warn(debug.ComponentWalk, "skipping symlink outside root", "path", rel)
		return false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return false
	}
	if target == parent || strings.HasPrefix(parent, target+string(filepath.Separator)) {
		s.w.logger.Debug(debug.ComponentWalk, "skipping symlink cycle", "path", rel, "target", pathutil.ToRelative(target, s.root))
		return false
	}
	return true
}

func (s *walk) keepFile(rel string) bool {
	if s.match.excluded(rel, false) || !s.match.included(rel) {
		return false
	}
	if s.ignore != nil && s.ignore.ShouldIgnore(rel, false) {
		return false
	}
	return true
}

// processFile admits one file into the structure.
func (s *walk) processFile(path string, fi fs.FileInfo, dir *types.DirectoryInfo) {
	if s.stopped.Load() {
		return
	}
	if s.refuseAtCap() {
		return
	}
	size := fi.Size()
	rel := s.rel(path)

	if size > s.w.opts.MaxFileSize {
		s.w.logger.Debug(debug.ComponentWalk, "skipping oversized file", "path", rel, "size", size, "limit", s.w.opts.MaxFileSize)
		s.recordSkip(path, SkipTooLarge)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.w.logger.Warn(debug.ComponentWalk, "skipping unreadable file", "path", rel, "error", err)
		s.recordSkip(path, SkipUnreadable)
		return
	}
	_ = f.Close()

	file := s.w.classifier.Describe(path, size)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cs.TotalFiles >= s.maxFiles {
		s.truncateLocked(fmt.Sprintf("file limit %d reached", s.maxFiles))
		return
	}
	decision := s.monitor.CanProceed(size)
	if !decision.Allowed {
		switch decision.Reason {
		case resource.ReasonFileCount, resource.ReasonTime:
			s.truncateLocked(decision.Detail)
		default:
			s.w.logger.Warn(debug.ComponentWalk, "skipping file over budget", "path", rel, "reason", string(decision.Reason), "detail", decision.Detail)
			s.recordSkipLocked(path, "budget_"+string(decision.Reason))
		}
		return
	}

	s.cs.TotalFiles++
	s.cs.TotalSizeBytes += size
	dir.FileCount++
	dir.TotalSizeBytes += size
	if file.Language != "" {
		s.languages[file.Language]++
	}
	if bucket := s.cs.FilesByExtension[file.Extension]; len(bucket) < s.w.opts.MaxFilesPerType {
		s.cs.FilesByExtension[file.Extension] = append(bucket, file)
	}
	s.monitor.RecordProcessed()
}

// refuseAtCap halts the walk when a file is offered after the cap was
// reached. Reaching the cap with nothing left to offer is not truncation.
func (s *walk) refuseAtCap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cs.TotalFiles >= s.maxFiles {
		s.truncateLocked(fmt.Sprintf("file limit %d reached", s.maxFiles))
		return true
	}
	return false
}

// truncateLocked halts the walk. Caller holds s.mu.
func (s *walk) truncateLocked(reason string) {
	if !s.cs.Truncated {
		s.cs.Truncated = true
		s.cs.TruncateReason = reason
		s.w.logger.Warn(debug.ComponentWalk, "exploration stopped early", "reason", reason, "files", s.cs.TotalFiles)
	}
	s.stopped.Store(true)
}

func (s *walk) recordSkip(path, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordSkipLocked(path, reason)
}

func (s *walk) recordSkipLocked(path, reason string) {
	if len(s.cs.SkippedFiles) < types.MaxSkippedFiles {
		s.cs.SkippedFiles = append(s.cs.SkippedFiles, types.SkippedFile{Path: path, Reason: reason})
	}
}

func (s *walk) rel(path string) string {
	return pathutil.ToSlashRelative(path, s.root)
}
