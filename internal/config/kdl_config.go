package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL loads dir/.scout.kdl. A missing file yields (nil, nil).
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, FileName)

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	cfg, err := parseKDL(string(content), absOrSelf(dir))
	if err != nil {
		return nil, err
	}

	// A relative root is resolved against the directory holding the file
	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(absOrSelf(dir), cfg.Project.Root)
	}
	cfg.Project.Root = filepath.Clean(cfg.Project.Root)

	return cfg, nil
}

func absOrSelf(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// parseKDL builds a Config from KDL source, starting from the defaults for
// defaultRoot. Unknown nodes are ignored.
//
//	project { name "shop"; root "." }
//	explore { max_depth 12; follow_symlinks true }
//	budget { max_memory_mb 256; max_file_size "2MB"; max_processing_time "90s" }
//	analysis { target ".ts"; sample_size 8 }
//	exclude "**/generated/**" "**/*.pb.go"
func parseKDL(content, defaultRoot string) (*Config, error) {
	cfg := Default(defaultRoot)

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "explore":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Explore.MaxDepth = v
					}
				case "batch_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Explore.BatchSize = v
					}
				case "max_files_per_type":
					if v, ok := firstIntArg(cn); ok {
						cfg.Explore.MaxFilesPerType = v
					}
				case "follow_symlinks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Explore.FollowSymlinks = b
					}
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Explore.RespectGitignore = b
					}
				}
			}
		case "budget":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Budget.MaxMemoryMB = v
					}
				case "max_files":
					if v, ok := firstIntArg(cn); ok {
						cfg.Budget.MaxFiles = v
					}
				case "max_file_size":
					if v, ok := sizeArg(cn); ok {
						cfg.Budget.MaxFileSizeBytes = v
					}
				case "max_processing_time":
					if d, ok := durationArg(cn); ok {
						cfg.Budget.MaxProcessingTime = d
					}
				}
			}
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "target":
					if s, ok := firstStringArg(cn); ok {
						cfg.Analysis.Target = s
					}
				case "sample_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.SampleSize = v
					}
				case "max_file_size":
					if v, ok := sizeArg(cn); ok {
						cfg.Analysis.MaxFileSize = v
					}
				case "concurrency":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.Concurrency = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			// An exclude block replaces the default exclusions
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// sizeArg accepts a byte count or a size string such as "10MB".
func sizeArg(n *document.Node) (int64, bool) {
	if v, ok := firstIntArg(n); ok {
		return int64(v), true
	}
	s, ok := firstStringArg(n)
	if !ok {
		return 0, false
	}
	sz, err := parseSize(s)
	if err != nil {
		log.Printf("WARNING: invalid size %q for '%s' in %s: %v", s, nodeName(n), FileName, err)
		return 0, false
	}
	return sz, true
}

// durationArg accepts whole seconds or a Go duration string such as "90s".
func durationArg(n *document.Node) (time.Duration, bool) {
	if v, ok := firstIntArg(n); ok {
		return time.Duration(v) * time.Second, true
	}
	s, ok := firstStringArg(n)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("WARNING: invalid duration %q for '%s' in %s: %v", s, nodeName(n), FileName, err)
		return 0, false
	}
	return d, true
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block form: exclude { "pattern" }. Each child's name is the value.
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	numStr := s

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
