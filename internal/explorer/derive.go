package explorer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"

	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/pkg/pathutil"
)

// languageCounts orders languages by file count, then name.
func languageCounts(counts map[string]int) []types.LanguageCount {
	out := make([]types.LanguageCount, 0, len(counts))
	for lang, n := range counts {
		out = append(out, types.LanguageCount{Language: lang, Files: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// Dependency names that identify a framework, per ecosystem.
var (
	npmFrameworks = map[string]string{
		"react":         "React",
		"vue":           "Vue",
		"next":          "Next.js",
		"nuxt":          "Nuxt",
		"@angular/core": "Angular",
		"svelte":        "Svelte",
		"express":       "Express",
		"fastify":       "Fastify",
		"@nestjs/core":  "NestJS",
		"jest":          "Jest",
		"vitest":        "Vitest",
		"typescript":    "TypeScript",
		"vite":          "Vite",
		"webpack":       "Webpack",
	}
	goFrameworks = map[string]string{
		"github.com/gin-gonic/gin":    "Gin",
		"github.com/labstack/echo/v4": "Echo",
		"github.com/spf13/cobra":      "Cobra",
		"github.com/urfave/cli/v2":    "urfave/cli",
		"google.golang.org/grpc":      "gRPC",
		"github.com/gofiber/fiber/v2": "Fiber",
		"gorm.io/gorm":                "GORM",
		"github.com/go-chi/chi/v5":    "chi",
		"github.com/stretchr/testify": "testify",
		"github.com/gorilla/mux":      "gorilla/mux",
	}
	rustFrameworks = map[string]string{
		"actix-web": "Actix",
		"axum":      "Axum",
		"rocket":    "Rocket",
		"tokio":     "Tokio",
		"serde":     "Serde",
		"diesel":    "Diesel",
	}
	pythonFrameworks = map[string]string{
		"django":     "Django",
		"flask":      "Flask",
		"fastapi":    "FastAPI",
		"pytest":     "pytest",
		"sqlalchemy": "SQLAlchemy",
		"numpy":      "NumPy",
		"pandas":     "pandas",
	}
)

// detectFrameworks reads manifest files at root. Unreadable or malformed
// manifests contribute nothing.
func detectFrameworks(root string) []string {
	seen := make(map[string]bool)
	add := func(hint string) {
		if hint != "" {
			seen[hint] = true
		}
	}

	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		for _, h := range packageJSONHints(data) {
			add(h)
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "go.mod")); err == nil {
		for _, h := range goModHints(data) {
			add(h)
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "Cargo.toml")); err == nil {
		for _, h := range cargoHints(data) {
			add(h)
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "pyproject.toml")); err == nil {
		for _, h := range pyprojectHints(data) {
			add(h)
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "requirements.txt")); err == nil {
		for _, h := range requirementsHints(data) {
			add(h)
		}
	}
	for file, hint := range map[string]string{
		"pom.xml":          "Maven",
		"build.gradle":     "Gradle",
		"build.gradle.kts": "Gradle",
		"Gemfile":          "Bundler",
		"composer.json":    "Composer",
		"Dockerfile":       "Docker",
	} {
		if _, err := os.Stat(filepath.Join(root, file)); err == nil {
			add(hint)
		}
	}

	hints := make([]string, 0, len(seen))
	for h := range seen {
		hints = append(hints, h)
	}
	sort.Strings(hints)
	return hints
}

func packageJSONHints(data []byte) []string {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	hints := []string{"Node.js"}
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		for name := range deps {
			if h, ok := npmFrameworks[name]; ok {
				hints = append(hints, h)
			}
		}
	}
	return hints
}

func goModHints(data []byte) []string {
	mf, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return nil
	}
	hints := []string{"Go"}
	if mf.Go != nil && mf.Go.Version != "" {
		hints = append(hints, "Go "+mf.Go.Version)
	}
	for _, req := range mf.Require {
		if req.Indirect {
			continue
		}
		if h, ok := goFrameworks[req.Mod.Path]; ok {
			hints = append(hints, h)
		}
	}
	return hints
}

func cargoHints(data []byte) []string {
	var manifest struct {
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil
	}
	hints := []string{"Rust"}
	for _, deps := range []map[string]any{manifest.Dependencies, manifest.DevDependencies} {
		for name := range deps {
			if h, ok := rustFrameworks[name]; ok {
				hints = append(hints, h)
			}
		}
	}
	return hints
}

func pyprojectHints(data []byte) []string {
	var manifest struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil
	}
	hints := []string{"Python"}
	for _, spec := range manifest.Project.Dependencies {
		if h, ok := pythonFrameworks[requirementName(spec)]; ok {
			hints = append(hints, h)
		}
	}
	for name := range manifest.Tool.Poetry.Dependencies {
		if h, ok := pythonFrameworks[strings.ToLower(name)]; ok {
			hints = append(hints, h)
		}
	}
	return hints
}

func requirementsHints(data []byte) []string {
	hints := []string{"Python"}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if h, ok := pythonFrameworks[requirementName(line)]; ok {
			hints = append(hints, h)
		}
	}
	return hints
}

// requirementName extracts the lowercased distribution name from a
// requirement specifier such as "Django>=4.2; python_version>'3.8'".
func requirementName(spec string) string {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if i := strings.IndexAny(spec, "<>=!~[;@ "); i >= 0 {
		spec = spec[:i]
	}
	return spec
}

// architectureRule fires when every listed directory name is present.
type architectureRule struct {
	pattern string
	dirs    []string
}

var architectureRules = []architectureRule{
	{"Go standard layout", []string{"cmd", "internal"}},
	{"MVC", []string{"controllers", "models", "views"}},
	{"Hexagonal (ports and adapters)", []string{"domain", "ports", "adapters"}},
	{"Component-based UI", []string{"components"}},
	{"Monorepo", []string{"packages"}},
	{"API layer", []string{"api"}},
	{"API layer", []string{"routes"}},
	{"Dedicated test tree", []string{"tests"}},
	{"Dedicated test tree", []string{"test"}},
	{"Dedicated test tree", []string{"__tests__"}},
	{"Database migrations", []string{"migrations"}},
}

// detectArchitecture matches directory-name heuristics against the retained
// directories.
func detectArchitecture(root string, dirs []types.DirectoryInfo) []string {
	names := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		rel := pathutil.ToSlashRelative(d.Path, root)
		if rel == "." || rel == "" {
			continue
		}
		for _, part := range strings.Split(rel, "/") {
			names[strings.ToLower(part)] = true
		}
	}

	seen := make(map[string]bool)
	var patterns []string
	for _, rule := range architectureRules {
		if seen[rule.pattern] {
			continue
		}
		matched := true
		for _, d := range rule.dirs {
			if !names[d] {
				matched = false
				break
			}
		}
		if matched {
			seen[rule.pattern] = true
			patterns = append(patterns, rule.pattern)
		}
	}
	sort.Strings(patterns)
	return patterns
}
