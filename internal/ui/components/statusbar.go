package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/fskit/internal/ui/styles"
	"github.com/fenilsonani/fskit/pkg/utils"
)

// StatusBar is the bottom line of the review screen
type StatusBar struct {
	group   int // 1-based
	groups  int
	keep    int
	members int
	freed   int64
}

// NewStatusBar creates an empty status bar
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetGroup sets the group position
func (s *StatusBar) SetGroup(group, groups int) {
	s.group = group
	s.groups = groups
}

// SetSelection sets how many members of the current group are kept
func (s *StatusBar) SetSelection(keep, members int) {
	s.keep = keep
	s.members = members
}

// SetFreed sets the bytes freed so far
func (s *StatusBar) SetFreed(freed int64) {
	s.freed = freed
}

// Render lays out the status on the left and hint on the right
func (s *StatusBar) Render(width int, hint string) string {
	if width <= 0 {
		width = 80
	}

	var parts []string
	if s.groups > 0 {
		parts = append(parts, styles.BoldStyle.Render(fmt.Sprintf("Group %d/%d", s.group, s.groups)))
		if width >= 60 {
			parts = append(parts, styles.ProgressBar(s.group-1, s.groups, 10))
		}
	}
	if s.members > 0 {
		parts = append(parts, fmt.Sprintf("keep %d/%d", s.keep, s.members))
	}
	if s.freed > 0 {
		parts = append(parts, styles.FileSizeStyle.Render(utils.FormatBytes(s.freed)+" freed"))
	}
	leftSide := strings.Join(parts, " • ")

	spacing := width - lipgloss.Width(leftSide) - lipgloss.Width(hint) - 2 // -2 for padding
	if spacing < 1 {
		hint = ""
		spacing = 1
	}

	return RenderSimple(leftSide+strings.Repeat(" ", spacing)+hint, width)
}

// RenderSimple renders a status bar holding just a message
func RenderSimple(message string, width int) string {
	if width <= 0 {
		width = 80
	}

	statusBarStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.BgDark).
		Padding(0, 1).
		Width(width)

	return statusBarStyle.Render(message)
}
