package classifier

import "github.com/standardbeagle/scout/internal/types"

func src(lang string) Entry { return Entry{Category: types.CategorySource, Language: lang} }
func cfg(lang string) Entry { return Entry{Category: types.CategoryConfig, Language: lang} }
func doc(lang string) Entry { return Entry{Category: types.CategoryDoc, Language: lang} }

// DefaultTable returns a fresh copy of the built-in lookup table.
func DefaultTable() Table {
	return Table{
		Extensions: map[string]Entry{
			".go":    src("Go"),
			".py":    src("Python"),
			".js":    src("JavaScript"),
			".jsx":   src("JavaScript"),
			".mjs":   src("JavaScript"),
			".cjs":   src("JavaScript"),
			".ts":    src("TypeScript"),
			".tsx":   src("TypeScript"),
			".java":  src("Java"),
			".kt":    src("Kotlin"),
			".kts":   src("Kotlin"),
			".scala": src("Scala"),
			".c":     src("C"),
			".h":     src("C"),
			".cpp":   src("C++"),
			".cc":    src("C++"),
			".cxx":   src("C++"),
			".hpp":   src("C++"),
			".cs":    src("C#"),
			".rs":    src("Rust"),
			".rb":    src("Ruby"),
			".php":   src("PHP"),
			".swift": src("Swift"),
			".m":     src("Objective-C"),
			".zig":   src("Zig"),
			".lua":   src("Lua"),
			".ex":    src("Elixir"),
			".exs":   src("Elixir"),
			".erl":   src("Erlang"),
			".hs":    src("Haskell"),
			".clj":   src("Clojure"),
			".dart":  src("Dart"),
			".sh":    src("Shell"),
			".bash":  src("Shell"),
			".zsh":   src("Shell"),
			".sql":   src("SQL"),
			".vue":   src("Vue"),
			".html":  src("HTML"),
			".css":   src("CSS"),
			".scss":  src("CSS"),
			".less":  src("CSS"),
			".proto": src("Protocol Buffers"),

			".json":       cfg("JSON"),
			".yaml":       cfg("YAML"),
			".yml":        cfg("YAML"),
			".toml":       cfg("TOML"),
			".ini":        cfg("INI"),
			".cfg":        cfg("INI"),
			".conf":       cfg(""),
			".env":        cfg(""),
			".xml":        cfg("XML"),
			".kdl":        cfg("KDL"),
			".properties": cfg(""),
			".lock":       cfg(""),
			".mod":        cfg("Go"),
			".sum":        cfg(""),

			".md":   doc("Markdown"),
			".mdx":  doc("Markdown"),
			".rst":  doc("reStructuredText"),
			".txt":  doc(""),
			".adoc": doc("AsciiDoc"),
		},
		Names: map[string]Entry{
			"Makefile":       cfg("Make"),
			"Dockerfile":     cfg("Docker"),
			"Jenkinsfile":    cfg("Groovy"),
			"Gemfile":        cfg("Ruby"),
			"Rakefile":       src("Ruby"),
			"Procfile":       cfg(""),
			"go.mod":         cfg("Go"),
			"go.sum":         cfg("Go"),
			"package.json":   cfg("JSON"),
			"tsconfig.json":  cfg("JSON"),
			"Cargo.toml":     cfg("TOML"),
			"pyproject.toml": cfg("TOML"),
			".gitignore":     cfg(""),
			".editorconfig":  cfg(""),
			"README":         doc(""),
			"LICENSE":        doc(""),
			"CHANGELOG":      doc(""),
		},
	}
}
