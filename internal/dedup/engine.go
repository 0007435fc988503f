// Package dedup finds files with identical content under a directory and
// removes the copies an operator chooses not to keep.
//
// The duplicate set is computed once, when the Engine is created. Removing
// files does not refresh it; build a new Engine to rescan.
package dedup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/fskit/internal/logging"
	"github.com/fenilsonani/fskit/internal/metrics"
	"github.com/fenilsonani/fskit/internal/progress"
	"github.com/fenilsonani/fskit/internal/security"
	"github.com/fenilsonani/fskit/internal/walker"
)

// Options configures an Engine. Slices are copied; the caller may reuse them.
type Options struct {
	// MinSize excludes smaller files from the scan. 0 disables the filter.
	MinSize int64
	// Ignore lists literal names to skip; a trailing "/" marks a directory name.
	Ignore []string
	// Workers is the number of concurrent hashers. 0 picks a default from
	// the CPU count, 1 hashes sequentially.
	Workers int
	// ProtectedPaths are added to the default protected system paths.
	ProtectedPaths []string

	Logger   logrus.FieldLogger
	Progress *progress.ProgressReporter
	Metrics  *metrics.Collector
	Recorder Recorder
	Deleter  Deleter
}

// Engine holds a computed duplicate set and applies retention decisions to it
type Engine struct {
	root      string
	result    *Result
	log       logrus.FieldLogger
	progress  *progress.ProgressReporter
	metrics   *metrics.Collector
	recorder  Recorder
	deleter   Deleter
	validator *security.PathValidator
}

// New validates root, scans it, fingerprints the candidates and groups the
// duplicates. A missing root is the only fatal condition; unreadable
// subdirectories and files are logged and skipped.
func New(ctx context.Context, root string, opts Options) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, abs)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, abs)
	}

	canonical, err := walker.Canonical(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", abs, err)
	}

	e := &Engine{
		root:      canonical,
		log:       logging.OrDiscard(opts.Logger).WithField("root", canonical),
		progress:  opts.Progress,
		metrics:   opts.Metrics,
		recorder:  opts.Recorder,
		deleter:   opts.Deleter,
		validator: security.NewPathValidator(opts.ProtectedPaths...),
	}
	if e.deleter == nil {
		e.deleter = OSDeleter{}
	}
	if e.validator.IsProtectedPath(canonical) {
		e.log.Warn("root lies inside a protected path, removals there may be refused")
	}

	result, err := e.scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	e.result = result

	return e, nil
}

// DefaultWorkers returns the hasher count used when Options.Workers is 0
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	if n > 16 {
		n = 16 // disk bound beyond this
	}
	return n
}

func (e *Engine) scan(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{Root: e.root}

	e.progress.Publish(progress.Update{Phase: progress.PhaseScanning, CurrentPath: e.root, StartTime: start})
	scanned := walker.Scan(e.root, walker.Filter{
		MinSize: opts.MinSize,
		Ignore:  opts.Ignore,
	}, e.log)
	result.Skipped = scanned.Skipped
	e.progress.Publish(progress.Update{Phase: progress.PhaseScanning, Done: len(scanned.Files), StartTime: start})
	e.log.WithField("files", len(scanned.Files)).Debug("scan finished")

	if scanned.Empty() {
		result.Kind = KindEmpty
		for _, s := range scanned.Skipped {
			if s.Path == e.root && os.IsNotExist(s.Err) {
				result.Kind = KindNotFound
			}
		}
		e.metrics.ObserveScan(0, time.Since(start))
		return result, nil
	}

	workers := opts.Workers
	if workers == 0 {
		workers = DefaultWorkers()
	}

	index, stats, err := Fingerprint(ctx, scanned.Files, FingerprintOptions{
		Workers:  workers,
		Logger:   e.log,
		Progress: e.progress,
		Metrics:  e.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("fingerprinting interrupted: %w", err)
	}
	result.Stats = stats

	result.Groups = GroupDuplicates(index)
	if len(result.Groups) == 0 {
		result.Kind = KindNoDuplicates
		result.Groups = nil
	} else {
		result.Kind = KindGroups
	}

	e.metrics.ObserveScan(len(scanned.Files), time.Since(start))
	e.metrics.SetGroups(len(result.Groups))
	e.progress.Publish(progress.Update{
		Phase:     progress.PhaseComplete,
		Done:      stats.FilesHashed,
		Bytes:     stats.BytesHashed,
		StartTime: start,
	})
	e.log.WithFields(logrus.Fields{
		"hashed": stats.FilesHashed,
		"groups": len(result.Groups),
	}).Info("duplicate scan finished")

	return result, nil
}

// Root returns the canonical scan root
func (e *Engine) Root() string {
	return e.root
}

// Duplicates returns the outcome computed at construction. The result is
// shared; callers must not modify it.
func (e *Engine) Duplicates() *Result {
	return e.result
}

// GroupCount returns the number of duplicate groups, 0 for sentinel outcomes
func (e *Engine) GroupCount() int {
	return len(e.result.Groups)
}
