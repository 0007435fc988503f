// Package hunter searches a directory tree for files by name pattern, size
// and modification date. It never modifies the filesystem.
package hunter

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/fskit/internal/logging"
	"github.com/fenilsonani/fskit/internal/security"
	"github.com/fenilsonani/fskit/internal/walker"
)

// ErrRootNotFound is returned by New when the search root does not exist
var ErrRootNotFound = errors.New("directory does not exist")

// DateLayout is the accepted date format
const DateLayout = "2006-01-02"

// DateMode selects how a file's modification time is compared to a date
type DateMode string

const (
	DateBefore DateMode = "before"
	DateAfter  DateMode = "after"
	DateOn     DateMode = "on"
)

// DateFilter keeps files modified before, after or on a calendar day
type DateFilter struct {
	Day  time.Time // midnight, local time
	Mode DateMode
}

// ParseDate builds a DateFilter from "YYYY-MM-DD" and an optional mode.
// An empty mode means on.
func ParseDate(day, mode string) (*DateFilter, error) {
	t, err := time.ParseInLocation(DateLayout, day, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", day, err)
	}

	m := DateMode(strings.ToLower(mode))
	switch m {
	case "":
		m = DateOn
	case DateBefore, DateAfter, DateOn:
	default:
		return nil, fmt.Errorf("invalid date mode %q (use before, after or on)", mode)
	}

	return &DateFilter{Day: t, Mode: m}, nil
}

// Match reports whether mtime satisfies the filter. before and after compare
// against midnight of the day, so anything later on the day counts as after.
func (d *DateFilter) Match(mtime time.Time) bool {
	switch d.Mode {
	case DateBefore:
		return mtime.Before(d.Day)
	case DateAfter:
		return mtime.After(d.Day)
	default:
		y1, m1, d1 := mtime.In(d.Day.Location()).Date()
		y2, m2, d2 := d.Day.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
}

// Options configures a search
type Options struct {
	// Patterns are matched against file names. Empty means "*".
	Patterns []string
	// Ignore lists directory names that are not entered.
	Ignore  []string
	MinSize int64
	Date    *DateFilter
	Logger  logrus.FieldLogger
}

// Match is one file found by a search
type Match struct {
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"modified" yaml:"modified"`
	Size    int64     `json:"size" yaml:"size"`
}

// Hunter holds a validated search configuration
type Hunter struct {
	root     string
	patterns []string
	ignore   []string
	minSize  int64
	date     *DateFilter
	log      logrus.FieldLogger
}

// New validates root and the patterns
func New(root string, opts Options) (*Hunter, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	patterns := append([]string(nil), opts.Patterns...)
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	for _, p := range patterns {
		if err := security.ValidateGlobPattern(p); err != nil {
			return nil, err
		}
	}

	h := &Hunter{
		root:     root,
		patterns: patterns,
		ignore:   append([]string(nil), opts.Ignore...),
		minSize:  opts.MinSize,
		date:     opts.Date,
		log:      logging.OrDiscard(opts.Logger),
	}
	return h, nil
}

// Search walks the tree and returns the matching files sorted by path.
// Symlinks are skipped; unreadable directories are logged and skipped.
func (h *Hunter) Search() []Match {
	var matches []Match

	walker.Traverse(h.root, func(e walker.Entry) bool {
		if e.Symlink {
			return false
		}
		if e.IsDir {
			return !walker.IsIgnoredDirName(e.Name, h.ignore)
		}
		if h.matches(e) {
			matches = append(matches, Match{
				Path:    e.Path,
				ModTime: e.Info.ModTime(),
				Size:    e.Info.Size(),
			})
		}
		return false
	}, func(dir string, err error) {
		h.log.WithError(err).WithField("dir", dir).Warn("cannot read directory, skipping")
	})

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})

	return matches
}

func (h *Hunter) matches(e walker.Entry) bool {
	if e.Info.Size() < h.minSize {
		return false
	}
	if h.date != nil && !h.date.Match(e.Info.ModTime()) {
		return false
	}
	for _, p := range h.patterns {
		// patterns were validated in New
		if ok, _ := doublestar.Match(p, e.Name); ok {
			return true
		}
	}
	return false
}
