package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/config"
)

// SwitchTableMsg is sent when the user picks a table to load.
type SwitchTableMsg struct {
	Ref config.TableRef
}

// closePickerMsg is sent when the picker is dismissed without a choice.
type closePickerMsg struct{}

// TablePickerModel lists discovered navigation tables and lets the user pick
// one, optionally narrowing the list by typing.
type TablePickerModel struct {
	entries     []config.TableRef
	active      string // Path of the loaded table
	filtered    []int  // Indices into entries
	cursor      int
	width       int
	height      int
	filterInput textinput.Model
	theme       Theme
}

// NewTablePicker creates a picker over refs; active marks the loaded table.
func NewTablePicker(refs []config.TableRef, active string, theme Theme) TablePickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 80
	ti.Width = 40
	ti.Focus()

	m := TablePickerModel{
		entries:     refs,
		active:      active,
		filterInput: ti,
		theme:       theme,
	}
	m.applyFilter()
	for i, idx := range m.filtered {
		if refs[idx].Path == active {
			m.cursor = i
			break
		}
	}
	return m
}

// SetSize updates the picker dimensions.
func (m *TablePickerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles keyboard input for the picker.
func (m TablePickerModel) Update(msg tea.Msg) (TablePickerModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "ctrl+c":
		return m, func() tea.Msg { return closePickerMsg{} }
	case "enter":
		if ref := m.SelectedEntry(); ref != nil {
			chosen := *ref
			return m, func() tea.Msg { return SwitchTableMsg{Ref: chosen} }
		}
		return m, nil
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.applyFilter()
		return m, cmd
	}
}

// applyFilter updates the filtered indices from the filter input. Matches
// are ordered best first.
func (m *TablePickerModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if query == "" {
		m.filtered = make([]int, len(m.entries))
		for i := range m.entries {
			m.filtered[i] = i
		}
		m.clampCursor()
		return
	}

	type scored struct {
		index int
		score int
	}
	var matches []scored
	for i, entry := range m.entries {
		best := fuzzyScore(strings.ToLower(entry.Name), query)
		if s := fuzzyScore(strings.ToLower(entry.Path), query); s > best {
			best = s
		}
		if best > 0 {
			matches = append(matches, scored{i, best})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	m.filtered = make([]int, len(matches))
	for i, match := range matches {
		m.filtered[i] = match.index
	}
	m.clampCursor()
}

func (m *TablePickerModel) clampCursor() {
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// fuzzyScore scores how well query matches s as an in-order subsequence.
// Zero means no match. Contiguous runs and a match at the start score higher.
func fuzzyScore(s, query string) int {
	if query == "" {
		return 1
	}
	if strings.Contains(s, query) {
		score := 100 + len(query)*10
		if strings.HasPrefix(s, query) {
			score += 50
		}
		return score
	}

	score := 0
	run := 0
	qi := 0
	q := []rune(query)
	for _, r := range s {
		if qi == len(q) {
			break
		}
		if r == q[qi] {
			qi++
			run++
			score += run
		} else {
			run = 0
		}
	}
	if qi < len(q) {
		return 0
	}
	return score
}

// View renders the picker as a bordered modal.
func (m *TablePickerModel) View() string {
	t := m.theme
	r := t.Renderer

	width := m.width - 8
	if width > 72 {
		width = 72
	}
	if width < 30 {
		width = 30
	}

	titleStyle := r.NewStyle().Foreground(t.Primary).Bold(true)
	countStyle := r.NewStyle().Foreground(t.Highlight)
	dimStyle := r.NewStyle().Foreground(t.Muted).Italic(true)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("tables") + countStyle.Render(fmt.Sprintf("[%d]", len(m.filtered))))
	sb.WriteString("\n")
	sb.WriteString(r.NewStyle().Foreground(t.Primary).Render("/ " + m.filterInput.View()))
	sb.WriteString("\n\n")

	if len(m.filtered) == 0 {
		sb.WriteString(dimStyle.Render("No tables found. Configure discovery.scan_paths in .nv/config.yaml"))
	} else {
		start, end := m.visibleRange()
		for i := start; i < end; i++ {
			sb.WriteString(m.renderRow(m.entries[m.filtered[i]], i == m.cursor, width-4))
			if i < end-1 {
				sb.WriteString("\n")
			}
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("enter load • esc cancel"))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Secondary).
		Padding(0, 1).
		Width(width).
		Render(sb.String())
}

func (m *TablePickerModel) renderRow(ref config.TableRef, isCursor bool, width int) string {
	t := m.theme
	marker := "  "
	if ref.Path == m.active {
		marker = "● "
	}
	text := truncateLabel(marker+ref.Name, width)
	switch {
	case isCursor:
		return t.Selected.Render(text)
	case ref.Path == m.active:
		return t.Current.Render(text)
	default:
		return t.Base.Render(text)
	}
}

// visibleRange keeps the cursor inside a window of rows that fits the modal.
func (m *TablePickerModel) visibleRange() (int, int) {
	rows := m.height - 10
	if rows < 5 {
		rows = 5
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := start + rows
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	return start, end
}

// Cursor returns the current cursor position.
func (m *TablePickerModel) Cursor() int {
	return m.cursor
}

// FilteredCount returns the number of entries matching the current filter.
func (m *TablePickerModel) FilteredCount() int {
	return len(m.filtered)
}

// SelectedEntry returns the highlighted table, or nil if none.
func (m *TablePickerModel) SelectedEntry() *config.TableRef {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	entry := m.entries[m.filtered[m.cursor]]
	return &entry
}
