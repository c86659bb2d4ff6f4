package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

// JumpMsg asks the navigator to show Page as if it had been navigated to.
type JumpMsg struct {
	Page string
}

// JumpModel is the "go to page" prompt. It accepts either a page link or an
// entry label and completes both.
type JumpModel struct {
	form  *huh.Form
	value *string // Heap-allocated so copies of the model share it
	table model.Table
}

// NewJumpModel creates the prompt over the pages of table.
func NewJumpModel(table model.Table, width int) JumpModel {
	value := new(string)
	input := huh.NewInput().
		Title("Go to page").
		Placeholder("page link or label").
		Suggestions(jumpSuggestions(table)).
		Value(value).
		Validate(func(s string) error {
			if resolveJump(table, s) == "" {
				return fmt.Errorf("no page matches %q", strings.TrimSpace(s))
			}
			return nil
		})

	form := huh.NewForm(huh.NewGroup(input)).
		WithShowHelp(false).
		WithTheme(huh.ThemeCharm())
	if width > 0 {
		form = form.WithWidth(min(width-4, 72))
	}
	return JumpModel{form: form, value: value, table: table}
}

// Init starts the form.
func (j JumpModel) Init() tea.Cmd {
	return j.form.Init()
}

// Update forwards msg to the form. Once the form completes it yields a
// JumpMsg for the resolved page.
func (j JumpModel) Update(msg tea.Msg) (JumpModel, tea.Cmd) {
	m, cmd := j.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		j.form = f
	}
	if j.form.State == huh.StateCompleted {
		page := resolveJump(j.table, *j.value)
		return j, tea.Batch(cmd, func() tea.Msg { return JumpMsg{Page: page} })
	}
	return j, cmd
}

// Done reports whether the prompt finished or was aborted.
func (j JumpModel) Done() bool {
	return j.form.State != huh.StateNormal
}

// View renders the prompt.
func (j JumpModel) View() string {
	return j.form.View()
}

// jumpSuggestions lists every link and every linked label, each once.
func jumpSuggestions(table model.Table) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	table.Walk(func(e *model.Entry, _ []int) bool {
		if e.HasLink() {
			add(e.Link)
			add(e.Label)
		}
		return true
	})
	return out
}

// resolveJump maps input to a page link: an exact link wins, then the first
// entry whose label matches case-insensitively. Returns "" when nothing does.
func resolveJump(table model.Table, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	var page string
	table.Walk(func(e *model.Entry, _ []int) bool {
		if !e.HasLink() {
			return true
		}
		if e.Link == input {
			page = e.Link
			return false
		}
		if page == "" && strings.EqualFold(e.Label, input) {
			page = e.Link
		}
		return true
	})
	return page
}
