package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// MarkdownRenderer renders the detail pane with glamour, optionally styled
// from the navigator theme.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	useTheme bool
	theme    *Theme
}

// NewMarkdownRenderer creates a renderer with glamour's standard dark style.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width}
	mr.rebuild()
	return mr
}

// NewMarkdownRendererWithTheme creates a renderer whose colors follow theme.
func NewMarkdownRendererWithTheme(width int, theme Theme) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width, useTheme: true, theme: &theme}
	mr.rebuild()
	return mr
}

func (mr *MarkdownRenderer) rebuild() {
	var opt glamour.TermRendererOption
	if mr.useTheme && mr.theme != nil {
		opt = glamour.WithStyles(buildStyleFromTheme(*mr.theme, mr.IsDarkMode()))
	} else {
		opt = glamour.WithStandardStyle("dark")
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(mr.width))
	if err != nil {
		r = nil
	}
	mr.renderer = r
}

// Render renders markdown. Without a renderer the input is returned as is.
func (mr *MarkdownRenderer) Render(markdown string) (string, error) {
	if mr.renderer == nil {
		return markdown, nil
	}
	return mr.renderer.Render(markdown)
}

// SetWidth rebuilds the renderer for a new wrap width. Non-positive and
// unchanged widths are ignored.
func (mr *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 || width == mr.width {
		return
	}
	mr.width = width
	mr.rebuild()
}

// SetWidthWithTheme switches to theme colors and rebuilds at width.
func (mr *MarkdownRenderer) SetWidthWithTheme(width int, theme Theme) {
	if width > 0 {
		mr.width = width
	}
	mr.useTheme = true
	mr.theme = &theme
	mr.rebuild()
}

// IsDarkMode reports whether the terminal background is dark.
func (mr *MarkdownRenderer) IsDarkMode() bool {
	if mr.theme != nil && mr.theme.Renderer != nil {
		return mr.theme.Renderer.HasDarkBackground()
	}
	return lipgloss.HasDarkBackground()
}

// extractHex picks the light or dark variant of ac.
func extractHex(ac lipgloss.AdaptiveColor, dark bool) string {
	if dark {
		return ac.Dark
	}
	return ac.Light
}

// buildStyleFromTheme starts from glamour's stock style and recolors the
// elements the detail pane uses.
func buildStyleFromTheme(theme Theme, dark bool) ansi.StyleConfig {
	cfg := styles.LightStyleConfig
	if dark {
		cfg = styles.DarkStyleConfig
	}
	color := func(ac lipgloss.AdaptiveColor) *string {
		s := extractHex(ac, dark)
		return &s
	}
	cfg.Document.Color = color(theme.Text)
	cfg.H1.Color = color(theme.Primary)
	cfg.H1.BackgroundColor = nil
	cfg.H2.Color = color(theme.Primary)
	cfg.Link.Color = color(theme.Highlight)
	cfg.LinkText.Color = color(theme.Highlight)
	cfg.Code.Color = color(theme.Secondary)
	cfg.Strong.Color = color(theme.Subtext)
	return cfg
}

// DetailMarkdown describes node n of tree as markdown: its label, target,
// position and, when the table carries one, its summary.
func DetailMarkdown(tree *navtree.Tree, n *navtree.Node) string {
	if tree == nil || n == nil || n.IsRoot() {
		return "_Nothing selected._"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(n.Label()))

	if n.Link() != "" {
		fmt.Fprintf(&b, "**Page:** `%s`  \n", n.Link())
		if href := tree.Href(n); href != n.Link() {
			fmt.Fprintf(&b, "**Href:** `%s`  \n", href)
		}
	} else {
		b.WriteString("**Page:** _none, activating toggles the node_  \n")
	}

	var crumbs []string
	for _, a := range n.Ancestors() {
		crumbs = append(crumbs, escapeMarkdown(a.Label()))
	}
	crumbs = append(crumbs, escapeMarkdown(n.Label()))
	fmt.Fprintf(&b, "**Path:** %s  \n", strings.Join(crumbs, " › "))

	if n.HasChildren() {
		fmt.Fprintf(&b, "**Children:** %d (%s)  \n", len(n.Entry.Children), n.State())
	}
	if n.Selected() {
		b.WriteString("**Current page**  \n")
	}

	if n.Entry != nil && n.Entry.Summary != "" {
		b.WriteString("\n---\n\n")
		b.WriteString(n.Entry.Summary)
		b.WriteString("\n")
	}
	return b.String()
}

// escapeMarkdown keeps template labels such as "CEdge< W >" from being read
// as markup.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"<", `\<`,
		"[", `\[`,
		"]", `\]`,
	)
	return r.Replace(s)
}
