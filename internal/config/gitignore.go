package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser matches root-relative paths against .gitignore patterns.
// The last matching pattern wins, so a later negation re-includes.
type GitignoreParser struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool // trailing slash: matches directories only
	Anchored  bool // leading or inner slash: matches from the root only
}

// NewGitignoreParser creates an empty parser
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads rootPath/.gitignore. A missing file is not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return gp.scanAndParsePatterns(file)
}

func (gp *GitignoreParser) scanAndParsePatterns(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		gp.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern parses one .gitignore line. Blank lines and comments are ignored.
func (gp *GitignoreParser) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	gp.patterns = append(gp.patterns, parsePattern(line))
}

// Len returns the number of loaded patterns.
func (gp *GitignoreParser) Len() int {
	return len(gp.patterns)
}

func parsePattern(line string) GitignorePattern {
	var p GitignorePattern

	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	// Escaped leading characters
	if strings.HasPrefix(line, `\#`) || strings.HasPrefix(line, `\!`) {
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Anchored = true
		line = line[1:]
	} else if strings.Contains(line, "/") && !strings.HasPrefix(line, "**/") {
		p.Anchored = true
	}

	p.Pattern = line
	return p
}

// ShouldIgnore reports whether the root-relative path is ignored.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	if path == "" || path == "." {
		return false
	}

	ignored := false
	for _, pattern := range gp.patterns {
		if pattern.matches(path, isDir) {
			ignored = !pattern.Negate
		}
	}
	return ignored
}

// matches tests path and each of its ancestor directories, since ignoring a
// directory ignores everything beneath it.
func (p GitignorePattern) matches(path string, isDir bool) bool {
	parts := strings.Split(path, "/")
	for i := len(parts); i >= 1; i-- {
		candidateIsDir := i < len(parts) || isDir
		if p.Directory && !candidateIsDir {
			continue
		}
		if p.matchOne(strings.Join(parts[:i], "/")) {
			return true
		}
	}
	return false
}

func (p GitignorePattern) matchOne(candidate string) bool {
	glob := p.Pattern
	if !p.Anchored && !strings.HasPrefix(glob, "**/") {
		glob = "**/" + glob
	}
	matched, err := doublestar.Match(glob, candidate)
	return err == nil && matched
}
