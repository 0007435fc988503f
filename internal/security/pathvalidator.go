package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathValidator handles secure path validation for file operations
type PathValidator struct {
	protectedPaths []string
}

// DefaultProtectedPaths are system directories that are never deleted from directly
var DefaultProtectedPaths = []string{
	// Unix system directories
	"/",
	"/bin",
	"/boot",
	"/dev",
	"/etc",
	"/lib",
	"/lib64",
	"/proc",
	"/root",
	"/sbin",
	"/sys",
	"/usr",
	"/var",
	// macOS system directories
	"/System",
	"/Applications",
	"/Library/System",
}

// NewPathValidator creates a new PathValidator with default protected paths
// plus any extra ones
func NewPathValidator(extra ...string) *PathValidator {
	pv := &PathValidator{
		protectedPaths: append([]string(nil), DefaultProtectedPaths...),
	}
	for _, p := range extra {
		pv.AddProtectedPath(p)
	}
	return pv
}

// ValidatePathForDeletion performs validation on a path before deletion
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	// Reject anything that is not already in clean form
	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte: %q", path)
	}

	// SECURITY: resolve symlinked ancestors so /tmp/link/.. tricks can't reach protected dirs
	resolvedPath, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			resolvedPath = filepath.Dir(path)
		} else {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
	}

	return pv.checkProtectedPaths(filepath.Join(resolvedPath, filepath.Base(path)))
}

// checkProtectedPaths validates that a path is not in a protected system directory
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		// Exact match
		if cleanPath == protected {
			return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
		}

		// Only entries directly inside a protected directory are refused:
		// /usr/foo is critical, /usr/local/share/foo is not
		prefix := strings.TrimSuffix(protected, "/") + "/"
		if strings.HasPrefix(cleanPath, prefix) {
			rel, _ := filepath.Rel(protected, cleanPath)
			if !strings.Contains(rel, "/") {
				return fmt.Errorf("refusing to delete critical system path: %s", cleanPath)
			}
		}
	}

	return nil
}

// IsProtectedPath checks if a path is a protected path or lies under one
func (pv *PathValidator) IsProtectedPath(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if protected == "/" {
			if cleanPath == "/" {
				return true
			}
			continue
		}
		if cleanPath == protected || strings.HasPrefix(cleanPath, protected+"/") {
			return true
		}
	}
	return false
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
}

// ValidateGlobPattern validates that a name pattern is well formed and safe
func ValidateGlobPattern(pattern string) error {
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern contains directory traversal: %s", pattern)
	}

	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	return nil
}
