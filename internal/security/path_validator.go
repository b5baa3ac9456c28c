package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	scouterrors "github.com/standardbeagle/scout/internal/errors"
)

// PathValidator decides whether a path may be read on behalf of a root.
// A path is safe when it resolves, symlinks included, to a location inside
// the root.
type PathValidator struct{}

// NewPathValidator creates a validator.
func NewPathValidator() *PathValidator {
	return &PathValidator{}
}

// ValidateRoot checks that root exists and is a directory, returning its
// absolute, symlink-resolved form. Failures are *errors.ExploreError.
func (v *PathValidator) ValidateRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", scouterrors.NewExploreError(scouterrors.ErrorTypeRootNotFound, root, fmt.Errorf("empty root path"))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", scouterrors.NewExploreError(scouterrors.ErrorTypeRootUnsafe, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", scouterrors.NewExploreError(scouterrors.ErrorTypeRootNotFound, root, err)
		}
		return "", scouterrors.NewExploreError(scouterrors.ErrorTypeRootUnsafe, root, err)
	}
	if !info.IsDir() {
		return "", scouterrors.NewExploreError(scouterrors.ErrorTypeRootNotDir, root, fmt.Errorf("%s is not a directory", abs))
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", scouterrors.NewExploreError(scouterrors.ErrorTypeRootUnsafe, root, err)
	}
	return resolved, nil
}

// IsSafeToRead reports whether path, with every symlink resolved, lands
// inside the resolved root. Missing paths are unsafe.
func (v *PathValidator) IsSafeToRead(path, root string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return false
	}
	_, ok := within(realRoot, resolved)
	return ok
}

// within returns path relative to base when it is lexically inside it.
func within(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
