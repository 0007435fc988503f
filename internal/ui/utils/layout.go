package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/fskit/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 80
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 24
)

// TruncatePath shortens path to maxWidth, keeping the file name and as
// much of the directory as fits
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}

	if maxWidth < 10 {
		return "..."
	}

	dir, file := filepath.Split(path)

	// If filename alone is too long, truncate it
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	availableForDir := maxWidth - len(file) - 3 // 3 for "..."
	if availableForDir <= 0 {
		return "..." + file
	}

	dir = filepath.Clean(dir)
	if len(dir) <= availableForDir {
		return filepath.Join(dir, file)
	}

	if availableForDir < 10 {
		return ".../" + file
	}

	parts := strings.Split(dir, string(filepath.Separator))
	if len(parts) <= 2 {
		return "..." + dir[len(dir)-availableForDir:] + string(filepath.Separator) + file
	}

	// Show first part, "...", and last part
	firstPart := parts[0]
	if firstPart == "" && len(parts) > 1 {
		firstPart = string(filepath.Separator) + parts[1]
	}
	lastPart := parts[len(parts)-1]

	estimatedLen := len(firstPart) + 1 + 3 + 1 + len(lastPart)
	if estimatedLen <= availableForDir {
		return firstPart + string(filepath.Separator) + "..." + string(filepath.Separator) +
			lastPart + string(filepath.Separator) + file
	}

	return "..." + string(filepath.Separator) + lastPart + string(filepath.Separator) + file
}

// CalculatePageSize returns how many list rows fit in terminalHeight
func CalculatePageSize(terminalHeight int) int {
	// title, group header, messages, status bar and help
	const reservedLines = 12

	pageSize := terminalHeight - reservedLines
	if pageSize < 5 {
		pageSize = 5
	}

	return pageSize
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small
func GetSizeWarningBanner(width, height int) string {
	if width == 0 || !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := "⚠️  Terminal too small! Recommended: 80x24 or larger" +
		styles.DimStyle.Render(fmt.Sprintf(" (current: %dx%d)", width, height))

	return styles.WarningStyle.Render(warning) + "\n\n"
}

// TruncateString truncates a string to maxLen runes, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
