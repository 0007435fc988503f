// Package outline converts between directory trees and an indented text
// outline.
//
// Rendered outline:
//
//	/srv/site/
//	  assets/
//	    logo.png (size=2048, modified_time=2024-03-15 10:00:00)
//	  index.html (size=512, modified_time=2024-03-15 10:00:00)
//
// Parsed outline, one entry per line, a trailing "/" marks a directory and an
// optional "(N)" gives a file size in bytes:
//
//	assets/
//	  logo.png (2048)
//	index.html
package outline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fenilsonani/fskit/internal/walker"
)

// IndentUnit is the rendered indentation per depth level
const IndentUnit = "  "

// TimeLayout formats file modification times
const TimeLayout = "2006-01-02 15:04:05"

// EmptyMessage is rendered for a root with no entries
const EmptyMessage = "This directory is empty"

// Node is one entry of a directory snapshot
type Node struct {
	Name     string
	IsDir    bool
	Size     int64
	ModTime  time.Time
	Children []*Node // sorted by name, directories only
}

// Build snapshots the tree under root. Symlinks are listed as files and
// never followed.
func Build(root string) (*Node, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	top := &Node{Name: root, IsDir: true, ModTime: info.ModTime()}
	nodes := map[string]*Node{root: top}
	var firstErr error

	walker.Traverse(root, func(e walker.Entry) bool {
		parent := nodes[filepath.Dir(e.Path)]
		n := &Node{
			Name:    e.Name,
			IsDir:   e.IsDir && !e.Symlink,
			Size:    e.Info.Size(),
			ModTime: e.Info.ModTime(),
		}
		if n.IsDir {
			n.Size = 0
			nodes[e.Path] = n
		}
		parent.Children = append(parent.Children, n)
		return n.IsDir
	}, func(dir string, err error) {
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to read %s: %w", dir, err)
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}

	sortTree(top)
	return top, nil
}

func sortTree(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].Name < n.Children[j].Name
	})
	for _, c := range n.Children {
		if c.IsDir {
			sortTree(c)
		}
	}
}

// Render formats a snapshot as the nested text view
func Render(root *Node) string {
	if len(root.Children) == 0 {
		return EmptyMessage
	}

	var b strings.Builder
	b.WriteString(strings.TrimSuffix(root.Name, walker.DirSuffix))
	b.WriteString(walker.DirSuffix)

	type frame struct {
		node  *Node
		depth int
	}
	stack := make([]frame, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{root.Children[i], 1})
	}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		b.WriteByte('\n')
		b.WriteString(strings.Repeat(IndentUnit, fr.depth))
		n := fr.node
		if n.IsDir {
			b.WriteString(n.Name)
			b.WriteString(walker.DirSuffix)
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{n.Children[i], fr.depth + 1})
			}
			continue
		}
		fmt.Fprintf(&b, "%s (size=%d, modified_time=%s)", n.Name, n.Size, n.ModTime.Format(TimeLayout))
	}

	return b.String()
}

// View builds and renders root in one step
func View(root string) (string, error) {
	node, err := Build(root)
	if err != nil {
		return "", err
	}
	return Render(node), nil
}
