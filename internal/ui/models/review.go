package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/fskit/internal/console"
	"github.com/fenilsonani/fskit/internal/dedup"
	"github.com/fenilsonani/fskit/internal/ui/components"
	"github.com/fenilsonani/fskit/internal/ui/styles"
	"github.com/fenilsonani/fskit/internal/ui/utils"
	fsutils "github.com/fenilsonani/fskit/pkg/utils"
)

// KeyMap holds the review screen bindings
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	RemoveAll key.Binding
	Skip      key.Binding
	Apply     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "keep/drop")),
		RemoveAll: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "remove all")),
		Skip:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip group")),
		Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.RemoveAll, k.Apply, k.Skip, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.RemoveAll, k.Apply, k.Skip},
		{k.Help, k.Quit},
	}
}

// RemovalMsg carries the outcome of one Remove call
type RemovalMsg struct {
	Group   int
	Removal *dedup.Removal
	Err     error
}

// ReviewModel walks through duplicate groups one at a time
type ReviewModel struct {
	engine console.Engine
	groups []dedup.Group

	group     int
	cursor    int
	offset    int
	keep      map[int]bool
	removeAll bool
	busy      bool
	done      bool

	messages []string
	freed    int64
	removed  int

	keys   KeyMap
	help   help.Model
	status *components.StatusBar
	width  int
	height int
}

// NewReviewModel creates a review screen over engine's groups
func NewReviewModel(engine console.Engine) *ReviewModel {
	groups := engine.Duplicates().Groups
	return &ReviewModel{
		engine: engine,
		groups: groups,
		keep:   make(map[int]bool),
		done:   len(groups) == 0,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		status: components.NewStatusBar(),
	}
}

// Init implements tea.Model
func (m *ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case RemovalMsg:
		m.busy = false
		m.record(msg)
		m.next()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.done || m.busy {
			return m, nil
		}
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *ReviewModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	files := m.groups[m.group].Files

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset--
			}
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(files)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.pageSize() {
				m.offset++
			}
		}
	case key.Matches(msg, m.keys.Toggle):
		m.removeAll = false
		m.keep[m.cursor] = !m.keep[m.cursor]
	case key.Matches(msg, m.keys.RemoveAll):
		m.removeAll = true
		m.keep = make(map[int]bool)
	case key.Matches(msg, m.keys.Skip):
		m.messages = append(m.messages, fmt.Sprintf("Group %d skipped.", m.group+1))
		m.next()
	case key.Matches(msg, m.keys.Apply):
		keep := m.Selection()
		if !m.removeAll && len(keep) == 0 {
			m.messages = append(m.messages, "Mark files to keep with space, or press r to remove all.")
			return nil
		}
		m.busy = true
		return m.apply(m.group, keep)
	}

	return nil
}

// Selection returns the sorted 0-based keep indexes of the current group
func (m *ReviewModel) Selection() []int {
	var keep []int
	for i, k := range m.keep {
		if k {
			keep = append(keep, i)
		}
	}
	sort.Ints(keep)
	return keep
}

func (m *ReviewModel) apply(group int, keep []int) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		removal, err := engine.Remove(group, keep)
		return RemovalMsg{Group: group, Removal: removal, Err: err}
	}
}

func (m *ReviewModel) record(msg RemovalMsg) {
	prefix := fmt.Sprintf("Group %d: ", msg.Group+1)
	if msg.Err != nil {
		m.messages = append(m.messages, styles.ErrorStyle.Render(prefix+msg.Err.Error()))
		return
	}

	r := msg.Removal
	m.removed += len(r.Removed)
	m.freed += r.FreedBytes
	line := prefix + r.Message()
	if r.Status == dedup.RemovalPermissionDenied {
		line = styles.ErrorStyle.Render(line)
	}
	m.messages = append(m.messages, line)
	if len(r.Refused) > 0 {
		m.messages = append(m.messages, styles.WarningStyle.Render(
			fmt.Sprintf("%sRefused %d protected files.", prefix, len(r.Refused))))
	}
}

func (m *ReviewModel) next() {
	m.group++
	m.cursor = 0
	m.offset = 0
	m.keep = make(map[int]bool)
	m.removeAll = false
	if m.group >= len(m.groups) {
		m.done = true
	}
}

// Done reports whether every group has been handled
func (m *ReviewModel) Done() bool {
	return m.done
}

// Removed returns the number of files deleted so far
func (m *ReviewModel) Removed() int {
	return m.removed
}

func (m *ReviewModel) pageSize() int {
	if m.height == 0 {
		return 20
	}
	return utils.CalculatePageSize(m.height)
}

// View implements tea.Model
func (m *ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(utils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(styles.TitleStyle.Render("Duplicate Review"))
	b.WriteString("\n")

	if m.done {
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Review complete: %d files removed, %s freed",
			m.removed, fsutils.FormatBytes(m.freed))))
		b.WriteString("\n\n")
		m.writeMessages(&b)
		b.WriteString(styles.DimStyle.Render("press q to quit"))
		return b.String()
	}

	g := m.groups[m.group]
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%d. hash - (%s)  %s each",
		m.group+1, g.Digest, fsutils.FormatBytes(g.Size))))
	b.WriteString("\n\n")

	width := m.width
	if width == 0 {
		width = 80
	}
	end := min(m.offset+m.pageSize(), len(g.Files))
	for i := m.offset; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		box := styles.DropBox()
		path := utils.TruncatePath(g.Files[i], width-12)
		switch {
		case m.keep[i]:
			box = styles.KeepBox()
			path = styles.KeepStyle.Render(path)
		case m.removeAll:
			path = styles.RemoveStyle.Render(path)
		default:
			path = styles.FilePathStyle.Render(path)
		}

		fmt.Fprintf(&b, "%s%s %d. %s\n", cursor, box, i+1, path)
	}
	b.WriteString("\n")

	m.writeMessages(&b)

	m.status.SetGroup(m.group+1, len(m.groups))
	m.status.SetSelection(len(m.Selection()), len(g.Files))
	m.status.SetFreed(m.freed)
	hint := ""
	if m.busy {
		hint = "removing..."
	}
	b.WriteString(m.status.Render(width, hint))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *ReviewModel) writeMessages(b *strings.Builder) {
	start := max(0, len(m.messages)-5)
	for _, line := range m.messages[start:] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.messages) > 0 {
		b.WriteString("\n")
	}
}
