package dedup

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/fskit/internal/progress"
)

// RemovalStatus tags the outcome of one Remove call
type RemovalStatus int

const (
	// RemovalDone means every selected file was handled
	RemovalDone RemovalStatus = iota
	// RemovalNothing means the engine holds no duplicate groups
	RemovalNothing
	// RemovalInvalidGroup means the group index was out of range; nothing was touched
	RemovalInvalidGroup
	// RemovalPermissionDenied means a permission error stopped the call part way
	RemovalPermissionDenied
)

// Removal reports what one Remove call did
type Removal struct {
	Status RemovalStatus
	Group  int
	// Removed lists files deleted by this call
	Removed []string
	// Missing lists selected files that were already gone
	Missing []string
	// Kept lists members retained by the selection
	Kept []string
	// Refused lists files the path validator would not let us delete
	Refused []*DeletionError
	// Err is set when Status is RemovalPermissionDenied
	Err        *DeletionError
	FreedBytes int64
}

// Message returns the operator-facing status line
func (r *Removal) Message() string {
	switch r.Status {
	case RemovalNothing:
		return MsgNothingToRemove
	case RemovalInvalidGroup:
		return MsgInvalidGroup
	case RemovalPermissionDenied:
		return MsgPermission
	default:
		return fmt.Sprintf("Removed %d files.", len(r.Removed))
	}
}

// RemovalEvent describes one deletion attempt for a Recorder. Err is nil
// when the file was deleted.
type RemovalEvent struct {
	Root   string
	Digest string
	Path   string
	Size   int64
	Time   time.Time
	Err    *DeletionError
}

// Recorder receives an event for every file deleted or refused. Files that
// were already gone are not reported.
type Recorder interface {
	Record(ev RemovalEvent) error
}

// retryDelays are the pauses between attempts when a file is busy
var retryDelays = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
}

// NormalizeKeep resolves negative keep indexes by adding len(keep), not the
// group size: [-1] becomes [0]. A new slice is returned; keep is not modified.
func NormalizeKeep(keep []int) []int {
	if keep == nil {
		return nil
	}
	out := make([]int, len(keep))
	for i, k := range keep {
		if k < 0 {
			k += len(keep)
		}
		out[i] = k
	}
	return out
}

// Selection splits a group's members into the ones to remove and the ones
// to keep. An empty or nil keep list removes every member; indexes that
// match no member are ignored.
func Selection(files []string, keep []int) (remove, kept []string) {
	normalized := NormalizeKeep(keep)
	if len(normalized) == 0 {
		return append([]string(nil), files...), nil
	}

	keepSet := make(map[int]struct{}, len(normalized))
	for _, k := range normalized {
		keepSet[k] = struct{}{}
	}

	for i, f := range files {
		if _, ok := keepSet[i]; ok {
			kept = append(kept, f)
		} else {
			remove = append(remove, f)
		}
	}
	return remove, kept
}

// Remove deletes the members of group groupIndex (0-based) that are not
// selected by keep. Files that no longer exist are skipped. A permission
// error stops the call; files deleted before it stay deleted. Sentinel
// outcomes are reported through Removal.Status, not the error, which is only
// set for unexpected filesystem failures.
func (e *Engine) Remove(groupIndex int, keep []int) (*Removal, error) {
	removal := &Removal{Group: groupIndex}

	if !e.result.HasGroups() {
		removal.Status = RemovalNothing
		return removal, nil
	}
	if groupIndex < 0 || groupIndex >= len(e.result.Groups) {
		removal.Status = RemovalInvalidGroup
		return removal, nil
	}

	group := e.result.Groups[groupIndex]
	targets, kept := Selection(group.Files, keep)
	removal.Kept = kept

	log := e.log.WithFields(logrus.Fields{"group": groupIndex + 1, "digest": group.Digest})
	start := time.Now()

	for _, path := range targets {
		if err := e.validator.ValidatePathForDeletion(path); err != nil {
			delErr := &DeletionError{Path: path, Reason: ErrorInvalidPath, Original: err}
			removal.Refused = append(removal.Refused, delErr)
			e.metrics.ObserveRemovalError(delErr.Reason.String())
			e.record(e.event(group, path, delErr), log)
			log.WithError(err).WithField("path", path).Warn("refusing to delete")
			continue
		}

		delErr := e.removeWithRetry(path)
		if delErr == nil {
			removal.Removed = append(removal.Removed, path)
			removal.FreedBytes += group.Size
			e.metrics.ObserveRemoval(group.Size)
			e.record(e.event(group, path, nil), log)
			e.progress.Publish(progress.Update{
				Phase:       progress.PhaseRemoving,
				CurrentPath: path,
				Done:        len(removal.Removed),
				Total:       len(targets),
				Bytes:       removal.FreedBytes,
				StartTime:   start,
			})
			continue
		}

		if delErr.Reason == ErrorFileNotFound {
			removal.Missing = append(removal.Missing, path)
			continue
		}

		e.metrics.ObserveRemovalError(delErr.Reason.String())
		e.record(e.event(group, path, delErr), log)
		if delErr.Reason == ErrorPermissionDenied {
			log.WithField("path", path).Warn("permission denied, stopping removal for this group")
			removal.Status = RemovalPermissionDenied
			removal.Err = delErr
			return removal, nil
		}
		return removal, delErr
	}

	log.WithFields(logrus.Fields{
		"removed": len(removal.Removed),
		"missing": len(removal.Missing),
	}).Info("group processed")
	removal.Status = RemovalDone
	return removal, nil
}

// removeWithRetry deletes one file, retrying while it is busy
func (e *Engine) removeWithRetry(path string) *DeletionError {
	var lastErr *DeletionError

	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		lastErr = e.removeFile(path)
		if lastErr == nil || !lastErr.Retryable {
			return lastErr
		}
		if attempt < len(retryDelays) {
			time.Sleep(retryDelays[attempt])
		}
	}

	return lastErr
}

func (e *Engine) removeFile(path string) *DeletionError {
	// Lstat so a file swapped for a symlink is never followed
	info, err := os.Lstat(path)
	if err != nil {
		return CategorizeError(path, err)
	}
	if !info.Mode().IsRegular() {
		return &DeletionError{
			Path:     path,
			Reason:   ErrorIsDirectory,
			Original: fmt.Errorf("not a regular file (mode %s)", info.Mode()),
		}
	}

	if err := e.deleter.Remove(path); err != nil {
		return CategorizeError(path, err)
	}
	return nil
}

func (e *Engine) event(g Group, path string, err *DeletionError) RemovalEvent {
	return RemovalEvent{
		Root:   e.root,
		Digest: g.Digest,
		Path:   path,
		Size:   g.Size,
		Time:   time.Now(),
		Err:    err,
	}
}

func (e *Engine) record(ev RemovalEvent, log logrus.FieldLogger) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ev); err != nil {
		log.WithError(err).Warn("failed to write removal journal")
	}
}
