package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"0", 0},
		{"1024", 1024},
		{"1B", 1},
		{"1KB", 1024},
		{"10kb", 10 * 1024},
		{"1.5MB", 1536 * 1024},
		{" 2 GB ", 2 * 1024 * 1024 * 1024},
		{"1T", 1024 * 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if err != nil {
				t.Fatalf("ParseSize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseSizeInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "MB", "-5", "10XB", "abc"} {
		if _, err := ParseSize(input); err == nil {
			t.Errorf("ParseSize(%q) expected error", input)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{-1, "0 B"},
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * MB, "5.00 MB"},
		{3 * GB, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.input); got != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDigest(t *testing.T) {
	// md5("hello")
	const want = "5d41402abc4b2a76b9719d911017c592"

	if got := Digest([]byte("hello")); got != want {
		t.Errorf("Digest(hello) = %s, want %s", got, want)
	}
	if len(Digest(nil)) != DigestSize {
		t.Errorf("digest length = %d, want %d", len(Digest(nil)), DigestSize)
	}
	if Digest([]byte("hello")) == Digest([]byte("world")) {
		t.Error("different content produced the same digest")
	}
}

func TestDigestFileMatchesDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("some file content\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile returned error: %v", err)
	}
	if got != Digest(content) {
		t.Errorf("DigestFile = %s, want %s", got, Digest(content))
	}

	if _, err := DigestFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
