// Package walker provides the iterative directory traversal shared by the
// duplicate finder and the file hunter.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/fskit/internal/logging"
)

// DirSuffix marks an ignore entry that names a directory
const DirSuffix = "/"

// Entry is a single directory entry seen during traversal
type Entry struct {
	Path    string // path as reached (parent path joined with Name)
	Name    string
	IsDir   bool
	Symlink bool
	Info    fs.FileInfo // Lstat info, never follows symlinks
}

// VisitFunc is called for every entry. Returning true for a directory
// pushes it onto the work stack.
type VisitFunc func(e Entry) (descend bool)

// ErrorFunc is called when a directory cannot be read. Traversal continues
// with the next directory on the stack.
type ErrorFunc func(dir string, err error)

// Traverse walks the tree under root using an explicit stack, so deep trees
// never grow the goroutine stack. Entries are classified without following
// symlinks.
func Traverse(root string, visit VisitFunc, onErr ErrorFunc) {
	stack := []string{root}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			if onErr != nil {
				onErr(dir, err)
			}
			// ReadDir returns what it read before the error
			if len(entries) == 0 {
				continue
			}
		}

		for _, de := range entries {
			path := filepath.Join(dir, de.Name())
			info, err := de.Info()
			if err != nil {
				// Vanished between ReadDir and Info
				continue
			}

			e := Entry{
				Path:    path,
				Name:    de.Name(),
				IsDir:   info.IsDir(),
				Symlink: info.Mode()&os.ModeSymlink != 0,
				Info:    info,
			}

			if visit(e) && e.IsDir && !e.Symlink {
				stack = append(stack, path)
			}
		}
	}
}

// Filter decides which entries qualify for a duplicate scan
type Filter struct {
	// MinSize excludes files smaller than this many bytes. 0 disables it.
	// Directories are never size-filtered.
	MinSize int64
	// Ignore holds literal names. Entries ending in "/" match directories,
	// others match files.
	Ignore []string
}

// Matcher is the immutable, compiled form of a Filter
type Matcher struct {
	minSize int64
	ignore  map[string]struct{}
}

// Compile copies the filter into a Matcher so later changes to the caller's
// slice have no effect
func (f Filter) Compile() *Matcher {
	m := &Matcher{
		minSize: f.MinSize,
		ignore:  make(map[string]struct{}, len(f.Ignore)),
	}
	for _, name := range f.Ignore {
		m.ignore[name] = struct{}{}
	}
	return m
}

// Accept reports whether an entry passes the filter
func (m *Matcher) Accept(e Entry) bool {
	key := e.Name
	if e.IsDir {
		key += DirSuffix
	}
	if _, ignored := m.ignore[key]; ignored {
		return false
	}
	if !e.IsDir && m.minSize > 0 && e.Info.Size() < m.minSize {
		return false
	}
	return true
}

// SkippedDir records a directory that could not be read
type SkippedDir struct {
	Path string
	Err  error
}

// ScanResult is the outcome of Scan
type ScanResult struct {
	// Files holds canonical absolute paths of accepted regular files, sorted
	Files []string
	// Skipped lists directories whose contents were not visited
	Skipped []SkippedDir
}

// Empty reports whether no file qualified
func (r *ScanResult) Empty() bool {
	return len(r.Files) == 0
}

// Scan collects every regular file under root that passes filter. Symlinked
// entries are neither followed nor returned. Paths are resolved to their
// canonical absolute form so a file reached twice appears once.
func Scan(root string, filter Filter, log logrus.FieldLogger) *ScanResult {
	log = logging.OrDiscard(log)
	matcher := filter.Compile()
	result := &ScanResult{}
	seen := make(map[string]struct{})

	Traverse(root, func(e Entry) bool {
		if e.Symlink || !matcher.Accept(e) {
			return false
		}
		if e.IsDir {
			return true
		}
		if !e.Info.Mode().IsRegular() {
			return false
		}

		path, err := Canonical(e.Path)
		if err != nil {
			log.WithError(err).WithField("path", e.Path).Debug("skipping unresolvable file")
			return false
		}
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			result.Files = append(result.Files, path)
		}
		return false
	}, func(dir string, err error) {
		log.WithError(err).WithField("path", dir).Warn("skipping unreadable directory")
		result.Skipped = append(result.Skipped, SkippedDir{Path: dir, Err: err})
	})

	sort.Strings(result.Files)
	return result
}

// Canonical returns the absolute path with "." / ".." and symlinked ancestors resolved
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// IsIgnoredDirName reports whether name is in a plain list of directory names
func IsIgnoredDirName(name string, ignore []string) bool {
	for _, n := range ignore {
		if strings.TrimSuffix(n, DirSuffix) == name {
			return true
		}
	}
	return false
}
