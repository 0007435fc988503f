package outline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/fskit/internal/logging"
)

// ActionKind says what Create did with one item
type ActionKind string

const (
	ActionDir       ActionKind = "dir"
	ActionCreated   ActionKind = "created"
	ActionSkipped   ActionKind = "skipped"
	ActionRewritten ActionKind = "rewritten"
)

// Action records one Create decision
type Action struct {
	Path string
	Kind ActionKind
}

// String formats the action for the operator
func (a Action) String() string {
	switch a.Kind {
	case ActionSkipped:
		return fmt.Sprintf("[SKIPPING] => '%s' already exists", a.Path)
	case ActionRewritten:
		return fmt.Sprintf("[FORCED REWRITE] => '%s' already existed", a.Path)
	case ActionDir:
		return fmt.Sprintf("[DIR] => '%s'", a.Path)
	default:
		return fmt.Sprintf("[CREATED] => '%s'", a.Path)
	}
}

const fillChunk = 32 * 1024

// Create materializes items under root. Directories are created first, then
// files filled with Size space bytes. Existing files are left alone unless
// force is set.
func Create(root string, items []Item, force bool, log logrus.FieldLogger) ([]Action, error) {
	log = logging.OrDiscard(log)
	actions := make([]Action, 0, len(items))

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root %s: %w", root, err)
	}

	for _, item := range items {
		if !item.IsDir {
			continue
		}
		path := filepath.Join(root, item.Path)
		if err := os.MkdirAll(path, 0755); err != nil {
			return actions, fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		actions = append(actions, Action{Path: path, Kind: ActionDir})
		log.WithField("path", path).Debug("directory ready")
	}

	for _, item := range items {
		if item.IsDir {
			continue
		}
		path := filepath.Join(root, item.Path)

		kind := ActionCreated
		if info, err := os.Lstat(path); err == nil {
			if info.IsDir() {
				return actions, fmt.Errorf("line %d: %s exists and is a directory", item.Line, path)
			}
			if !info.Mode().IsRegular() {
				return actions, fmt.Errorf("line %d: %s exists and is not a regular file", item.Line, path)
			}
			if !force {
				actions = append(actions, Action{Path: path, Kind: ActionSkipped})
				log.WithField("path", path).Info("file exists, skipping")
				continue
			}
			kind = ActionRewritten
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return actions, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := writeFill(path, item.Size); err != nil {
			return actions, err
		}
		actions = append(actions, Action{Path: path, Kind: kind})
		log.WithFields(logrus.Fields{"path": path, "size": item.Size, "action": kind}).Info("file written")
	}

	return actions, nil
}

func writeFill(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	chunk := bytes.Repeat([]byte{' '}, int(min(size, fillChunk)))
	for remaining := size; remaining > 0; {
		n := min(remaining, int64(len(chunk)))
		if _, err := f.Write(chunk[:n]); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		remaining -= n
	}

	return f.Close()
}
