package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePathForDeletion(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name        string
		setup       func(t *testing.T) string // Returns actual path to test
		shouldError bool
		errorMsg    string
	}{
		{
			name: "file in temp dir - valid",
			setup: func(t *testing.T) string {
				dir, _ := filepath.EvalSymlinks(t.TempDir())
				p := filepath.Join(dir, "dup.txt")
				os.WriteFile(p, []byte("x"), 0644)
				return p
			},
			shouldError: false,
		},
		{
			name: "name with parentheses - valid",
			setup: func(t *testing.T) string {
				dir, _ := filepath.EvalSymlinks(t.TempDir())
				return filepath.Join(dir, "photo (1).jpg")
			},
			shouldError: false,
		},
		{
			name:        "relative path - invalid",
			setup:       func(t *testing.T) string { return "relative/path.txt" },
			shouldError: true,
			errorMsg:    "path must be absolute",
		},
		{
			name:        "empty path - invalid",
			setup:       func(t *testing.T) string { return "" },
			shouldError: true,
			errorMsg:    "path must be absolute",
		},
		{
			name:        "path with NUL - invalid",
			setup:       func(t *testing.T) string { return "/tmp/test\x00malicious" },
			shouldError: true,
			errorMsg:    "NUL",
		},
		{
			name:        "root directory - protected",
			setup:       func(t *testing.T) string { return "/" },
			shouldError: true,
			errorMsg:    "protected path",
		},
		{
			name:        "/bin directory - protected",
			setup:       func(t *testing.T) string { return "/bin" },
			shouldError: true,
		},
		{
			name:        "/etc/direct-child - protected",
			setup:       func(t *testing.T) string { return "/etc/newfile" },
			shouldError: true,
			errorMsg:    "critical system path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testPath := tt.setup(t)
			err := pv.ValidatePathForDeletion(testPath)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errorMsg)
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestCustomProtectedPath(t *testing.T) {
	dir, _ := filepath.EvalSymlinks(t.TempDir())
	pv := NewPathValidator(dir)

	if err := pv.ValidatePathForDeletion(filepath.Join(dir, "file.txt")); err == nil {
		t.Error("expected direct child of custom protected path to be refused")
	}
	if err := pv.ValidatePathForDeletion(filepath.Join(dir, "sub", "file.txt")); err != nil {
		t.Errorf("expected nested file to be allowed, got %v", err)
	}
	if !pv.IsProtectedPath(filepath.Join(dir, "sub")) {
		t.Error("expected IsProtectedPath for path under custom protected dir")
	}
}

func TestIsProtectedPath(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name        string
		path        string
		isProtected bool
	}{
		{"root directory", "/", true},
		{"etc directory", "/etc", true},
		{"usr directory", "/usr", true},
		{"system directory (macOS)", "/System", true},
		{"file in etc", "/etc/hosts", true},
		{"file in usr", "/usr/bin/ls", true},
		{"var cache", "/var/cache/test", true},
		{"temp file", "/tmp/test.txt", false},
		{"home user subdir", "/home/user/Downloads/test", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pv.IsProtectedPath(tt.path)
			if result != tt.isProtected {
				t.Errorf("IsProtectedPath(%s) = %v, want %v", tt.path, result, tt.isProtected)
			}
		})
	}
}

func TestValidateGlobPattern(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		shouldError bool
	}{
		{"simple wildcard", "*.txt", false},
		{"double wildcard", "**/*.log", false},
		{"character class", "[abc]*.txt", false},
		{"alternatives", "*.{txt,log}", false},
		{"question mark", "file?.txt", false},
		{"unmatched bracket", "[abc", true},
		{"pattern with traversal", "../*.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGlobPattern(tt.pattern)

			if tt.shouldError && err == nil {
				t.Errorf("Expected error for pattern '%s', got nil", tt.pattern)
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Expected no error for pattern '%s', got: %v", tt.pattern, err)
			}
		})
	}
}

func TestPathCleaning(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name string
		path string
	}{
		{"path with dot segments", "/tmp/../var/test.txt"},
		{"path with double slashes", "/tmp//test//file.txt"},
		{"path with trailing slash", "/tmp/test/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.path)
			if err == nil || !strings.Contains(err.Error(), "suspicious elements") {
				t.Errorf("Expected suspicious elements error for '%s', got: %v", tt.path, err)
			}
		})
	}
}
