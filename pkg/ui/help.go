package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// KeyMap holds every binding of the navigator.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Top         key.Binding
	Bottom      key.Binding
	PageDown    key.Binding
	PageUp      key.Binding
	Toggle      key.Binding
	Activate    key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Center      key.Binding
	Back        key.Binding
	Forward     key.Binding
	Jump        key.Binding
	Detail      key.Binding
	Open        key.Binding
	Yank        key.Binding
	Tables      key.Binding
	Reload      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Left:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "collapse / parent")),
		Right:       key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "expand / child")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		PageDown:    key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "half page down")),
		PageUp:      key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "half page up")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Activate:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go to page")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Center:      key.NewBinding(key.WithKeys("."), key.WithHelp(".", "center current page")),
		Back:        key.NewBinding(key.WithKeys("b", "backspace"), key.WithHelp("b", "back")),
		Forward:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "forward")),
		Jump:        key.NewBinding(key.WithKeys(":", "/"), key.WithHelp(":", "jump to page")),
		Detail:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
		Open:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		Yank:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		Tables:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "switch table")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload table")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap for the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Activate, k.Back, k.Jump, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap for the overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom, k.PageDown, k.PageUp},
		{k.Toggle, k.Activate, k.ExpandAll, k.CollapseAll, k.Center, k.Back, k.Forward},
		{k.Jump, k.Detail, k.Open, k.Yank, k.Tables, k.Reload, k.Help, k.Quit},
	}
}

// RenderHelp renders the key reference modal.
func RenderHelp(keys KeyMap, h help.Model, theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 84
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 20 {
		modalWidth = 20
	}

	titleStyle := r.NewStyle().Bold(true).Foreground(theme.Primary)
	footerStyle := r.NewStyle().Foreground(theme.Muted).Italic(true)

	h.ShowAll = true
	h.Width = modalWidth - 6

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-6)))
	b.WriteString("\n\n")
	b.WriteString(h.View(keys))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Enter on a label without a page toggles it │ Esc to close"))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())
}
