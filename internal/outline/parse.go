package outline

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fenilsonani/fskit/internal/walker"
)

// Item is one parsed outline entry
type Item struct {
	Path  string // relative to the outline root, OS separators
	IsDir bool
	Size  int64 // fill size for files
	Line  int   // 1-based source line
}

var sizeSuffix = regexp.MustCompile(`^(.*?)\s*\((\d+)\)$`)

// Parse reads outline lines. The depth of a line is its leading whitespace
// width divided by indentUnit. Each entry attaches to the nearest preceding
// directory that is shallower than it, so depth jumps and entries indented
// under a file land in the closest enclosing directory. Blank lines are
// ignored.
func Parse(lines []string, indentUnit int) ([]Item, error) {
	if indentUnit <= 0 {
		return nil, fmt.Errorf("indent unit must be positive, got %d", indentUnit)
	}

	type parent struct {
		path  string
		depth int
	}
	stack := []parent{{path: "", depth: -1}}
	var items []Item

	for i, raw := range lines {
		line := strings.TrimRight(raw, " \t\r")
		body := strings.TrimLeft(line, " \t")
		if body == "" {
			continue
		}
		depth := (len(line) - len(body)) / indentUnit

		item, err := parseEntry(body)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		item.Line = i + 1

		// files cannot hold entries, so only directories stay on the stack
		for depth <= stack[len(stack)-1].depth {
			stack = stack[:len(stack)-1]
		}
		top := stack[len(stack)-1]

		item.Path = filepath.Join(top.path, item.Path)
		items = append(items, item)
		if item.IsDir {
			stack = append(stack, parent{path: item.Path, depth: depth})
		}
	}

	return items, nil
}

func parseEntry(body string) (Item, error) {
	var item Item

	name := body
	if m := sizeSuffix.FindStringSubmatch(body); m != nil {
		size, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return item, fmt.Errorf("invalid size in %q: %w", body, err)
		}
		name, item.Size = m[1], size
	}

	if strings.HasSuffix(name, walker.DirSuffix) {
		item.IsDir = true
		item.Size = 0
		name = strings.TrimRight(name, walker.DirSuffix)
	}

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return item, fmt.Errorf("invalid entry name %q", body)
	}

	item.Path = name
	return item, nil
}

// ParseReader reads an outline from r
func ParseReader(r io.Reader, indentUnit int) ([]Item, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}
	return Parse(lines, indentUnit)
}
