// Package display renders explored structures for terminals.
package display

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/pkg/pathutil"
)

// TreeFormatter formats the retained directories of a structure as a tree
type TreeFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls tree formatting
type FormatterOptions struct {
	MaxDepth int  // Maximum depth to display, 0 for all
	ShowSize bool // Show the total size of each directory
}

// NewTreeFormatter creates a new tree formatter
func NewTreeFormatter(options FormatterOptions) *TreeFormatter {
	return &TreeFormatter{options: options}
}

type treeNode struct {
	name     string
	info     types.DirectoryInfo
	children []*treeNode
}

// Format renders cs as ASCII art
//
//	shop (3 files)
//	├── cmd (1 files)
//	└── internal (0 files)
//	    └── store (4 files)
func (tf *TreeFormatter) Format(cs *types.CodebaseStructure) string {
	if cs == nil || len(cs.Directories) == 0 {
		return "No directories retained\n"
	}

	byPath := make(map[string]*treeNode, len(cs.Directories))
	for _, d := range cs.Directories {
		byPath[d.Path] = &treeNode{name: filepath.Base(d.Path), info: d}
	}

	// Directories are sorted by path, so parents precede children
	root, ok := byPath[cs.RootPath]
	if !ok {
		root = &treeNode{name: filepath.Base(cs.RootPath), info: types.DirectoryInfo{Path: cs.RootPath}}
	}
	for _, d := range cs.Directories {
		if d.Path == cs.RootPath {
			continue
		}
		node := byPath[d.Path]
		parent, ok := byPath[filepath.Dir(d.Path)]
		if !ok {
			parent = root
			node.name = pathutil.ToSlashRelative(d.Path, cs.RootPath)
		}
		parent.children = append(parent.children, node)
	}

	var sb strings.Builder
	sb.WriteString(tf.label(root))
	sb.WriteString("\n")
	tf.formatChildren(&sb, root, "", 1)
	return sb.String()
}

func (tf *TreeFormatter) formatChildren(sb *strings.Builder, node *treeNode, prefix string, depth int) {
	if tf.options.MaxDepth > 0 && depth > tf.options.MaxDepth {
		return
	}
	for i, child := range node.children {
		last := i == len(node.children)-1

		branch, childPrefix := "├── ", prefix+"│   "
		if last {
			branch, childPrefix = "└── ", prefix+"    "
		}
		sb.WriteString(prefix)
		sb.WriteString(branch)
		sb.WriteString(tf.label(child))
		sb.WriteString("\n")

		tf.formatChildren(sb, child, childPrefix, depth+1)
	}
}

func (tf *TreeFormatter) label(n *treeNode) string {
	if tf.options.ShowSize {
		return fmt.Sprintf("%s (%d files, %d bytes)", n.name, n.info.FileCount, n.info.TotalSizeBytes)
	}
	return fmt.Sprintf("%s (%d files)", n.name, n.info.FileCount)
}
