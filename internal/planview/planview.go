// Package planview renders organize and fix plans for the terminal.
package planview

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"

	"bookshelf/internal/planner"
)

type node struct {
	children map[string]*node
	file     bool
}

func (n *node) insert(parts []string) {
	if len(parts) == 0 {
		return
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	child, ok := n.children[parts[0]]
	if !ok {
		child = &node{}
		n.children[parts[0]] = child
	}
	if len(parts) == 1 {
		child.file = true
		return
	}
	child.insert(parts[1:])
}

func (n *node) names() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tree renders the destinations of ops as a directory tree rooted at
// destRoot. Directories carry a trailing slash.
func Tree(ops []planner.PlannedOperation, destRoot string) string {
	root := &node{}
	for _, op := range ops {
		rel, err := filepath.Rel(destRoot, op.Dest)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = op.Dest
		}
		var parts []string
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if part != "" {
				parts = append(parts, part)
			}
		}
		root.insert(parts)
	}

	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedLight)
	appendNode(lw, root)

	var b strings.Builder
	b.WriteString(strings.TrimRight(destRoot, string(filepath.Separator)) + "/\n")
	if rendered := lw.Render(); rendered != "" {
		b.WriteString(rendered)
		b.WriteByte('\n')
	}
	return b.String()
}

func appendNode(lw list.Writer, n *node) {
	for _, name := range n.names() {
		child := n.children[name]
		if len(child.children) == 0 && child.file {
			lw.AppendItem(name)
			continue
		}
		lw.AppendItem(name + "/")
		lw.Indent()
		appendNode(lw, child)
		lw.UnIndent()
	}
}

// List renders one "source → dest" line per operation, followed by its
// auxiliary files.
func List(ops []planner.PlannedOperation) string {
	var b strings.Builder
	for _, op := range ops {
		fmt.Fprintf(&b, "%s → %s\n", op.Source, op.Dest)
		for _, aux := range op.Auxiliary {
			fmt.Fprintf(&b, "  + %s → %s\n", aux.Source, aux.Dest)
		}
	}
	return b.String()
}

// Uncategorized renders the files that would land in dir, each with the
// fields it is missing.
func Uncategorized(files []planner.Uncategorized, dir string) string {
	if len(files) == 0 {
		return ""
	}
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedLight)
	for _, file := range files {
		label := filepath.Base(file.Source)
		if len(file.MissingFields) > 0 {
			label += " (missing: " + strings.Join(file.MissingFields, ", ") + ")"
		}
		lw.AppendItem(label)
	}
	return dir + "/\n" + lw.Render() + "\n"
}

// Conflicts renders each conflicting destination with its sources.
func Conflicts(conflicts []planner.Conflict) string {
	var b strings.Builder
	for _, conflict := range conflicts {
		reason := "multiple sources"
		if conflict.ExistsOnDisk {
			reason = "different file already exists"
			if len(conflict.Sources) > 1 {
				reason = "multiple sources, destination exists"
			}
		}
		fmt.Fprintf(&b, "%s (%s)\n", conflict.Dest, reason)
		for _, source := range conflict.Sources {
			fmt.Fprintf(&b, "  ← %s\n", source)
		}
	}
	return b.String()
}
