// Package pathutil converts between the absolute paths used internally and
// the root-relative paths shown to users.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/scout/internal/types"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails, the path lies outside
// root, or it is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go"
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}
	return relPath
}

// ToSlashRelative is ToRelative with forward slashes, the form glob and
// gitignore patterns are matched against. The root itself maps to ".".
func ToSlashRelative(absPath, rootDir string) string {
	return filepath.ToSlash(ToRelative(absPath, rootDir))
}

// RelativeFiles returns a copy of files with root-relative paths.
func RelativeFiles(files []types.FileInfo, rootDir string) []types.FileInfo {
	if len(files) == 0 {
		return files
	}
	converted := make([]types.FileInfo, len(files))
	copy(converted, files)
	for i := range converted {
		converted[i].Path = ToRelative(converted[i].Path, rootDir)
	}
	return converted
}

// RelativeIssues returns a copy of issues with root-relative paths.
func RelativeIssues(issues []types.Issue, rootDir string) []types.Issue {
	if len(issues) == 0 {
		return issues
	}
	converted := make([]types.Issue, len(issues))
	copy(converted, issues)
	for i := range converted {
		converted[i].Path = ToRelative(converted[i].Path, rootDir)
	}
	return converted
}

// RelativeStructure returns a copy of cs with every path made relative to
// its root, for output. Bucket slices are copied, never shared.
func RelativeStructure(cs *types.CodebaseStructure) *types.CodebaseStructure {
	if cs == nil {
		return nil
	}
	root := cs.RootPath
	out := *cs

	out.FilesByExtension = make(map[string][]types.FileInfo, len(cs.FilesByExtension))
	for ext, files := range cs.FilesByExtension {
		out.FilesByExtension[ext] = RelativeFiles(files, root)
	}

	out.Directories = make([]types.DirectoryInfo, len(cs.Directories))
	for i, d := range cs.Directories {
		d.Path = ToRelative(d.Path, root)
		if len(d.Subdirectories) > 0 {
			subs := make([]string, len(d.Subdirectories))
			for j, s := range d.Subdirectories {
				subs[j] = ToRelative(s, root)
			}
			d.Subdirectories = subs
		}
		out.Directories[i] = d
	}

	out.SkippedFiles = make([]types.SkippedFile, len(cs.SkippedFiles))
	for i, s := range cs.SkippedFiles {
		s.Path = ToRelative(s.Path, root)
		out.SkippedFiles[i] = s
	}
	return &out
}
