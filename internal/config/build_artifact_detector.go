package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds build output directories declared in a
// project's own build configuration, beyond the well-known names the walker
// already ignores.
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a detector for projectRoot
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns exclusion globs such as "**/lib/**".
// Unreadable or malformed files contribute nothing.
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, bad.detectJavaScriptOutputs()...)
	dirs = append(dirs, bad.detectRustOutputs()...)
	dirs = append(dirs, bad.detectPythonOutputs()...)

	patterns := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if p := dirPattern(d); p != "" {
			patterns = append(patterns, p)
		}
	}
	return DeduplicatePatterns(patterns)
}

func dirPattern(dir string) string {
	dir = strings.Trim(filepath.ToSlash(strings.TrimSpace(dir)), "\"'")
	dir = strings.TrimPrefix(dir, "./")
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." || strings.HasPrefix(dir, "..") {
		return ""
	}
	return "**/" + dir + "/**"
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
	Build   struct {
		OutDir string `json:"outDir"`
	} `json:"build"`
}

type tsconfigJSON struct {
	CompilerOptions struct {
		OutDir string `json:"outDir"`
	} `json:"compilerOptions"`
}

var viteOutDir = regexp.MustCompile(`outDir\s*:\s*['"]([^'"]+)['"]`)

func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var dirs []string

	var pkg packageJSON
	if bad.readJSON("package.json", &pkg) {
		names := make([]string, 0, len(pkg.Scripts))
		for name := range pkg.Scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts := strings.Fields(pkg.Scripts[name])
			for i, part := range parts {
				if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
					dirs = append(dirs, parts[i+1])
				} else if v, ok := strings.CutPrefix(part, "--outDir="); ok {
					dirs = append(dirs, v)
				}
			}
		}
		if pkg.Build.OutDir != "" {
			dirs = append(dirs, pkg.Build.OutDir)
		}
	}

	var ts tsconfigJSON
	if bad.readJSON("tsconfig.json", &ts) && ts.CompilerOptions.OutDir != "" {
		dirs = append(dirs, ts.CompilerOptions.OutDir)
	}

	for _, name := range []string{"vite.config.js", "vite.config.ts"} {
		data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
		if err != nil {
			continue
		}
		if m := viteOutDir.FindSubmatch(data); m != nil {
			dirs = append(dirs, string(m[1]))
		}
	}

	return dirs
}

type cargoConfig struct {
	Build struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
}

func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	var dirs []string
	for _, name := range []string{filepath.Join(".cargo", "config.toml"), filepath.Join(".cargo", "config")} {
		var cfg cargoConfig
		if bad.readTOML(name, &cfg) && cfg.Build.TargetDir != "" {
			dirs = append(dirs, cfg.Build.TargetDir)
		}
	}
	return dirs
}

type pyprojectTOML struct {
	Tool struct {
		Hatch struct {
			Build struct {
				Directory string `toml:"directory"`
			} `toml:"build"`
		} `toml:"hatch"`
		Maturin struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"maturin"`
	} `toml:"tool"`
}

func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	var py pyprojectTOML
	if !bad.readTOML("pyproject.toml", &py) {
		return nil
	}
	var dirs []string
	if py.Tool.Hatch.Build.Directory != "" {
		dirs = append(dirs, py.Tool.Hatch.Build.Directory)
	}
	if py.Tool.Maturin.TargetDir != "" {
		dirs = append(dirs, py.Tool.Maturin.TargetDir)
	}
	return dirs
}

func (bad *BuildArtifactDetector) readJSON(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
	return err == nil && json.Unmarshal(data, v) == nil
}

func (bad *BuildArtifactDetector) readTOML(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
	return err == nil && toml.Unmarshal(data, v) == nil
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrences
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
