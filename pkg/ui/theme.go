package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// Theme holds the colors and base styles of the navigator.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style // Cursor row
	Current  lipgloss.Style // Row of the page being shown
}

// DefaultTheme returns the standard palette bound to renderer r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#F1FA8C"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6272A4"},
		Highlight: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"},
		Text:      lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"},
	}
	t.Base = r.NewStyle().Foreground(t.Text)
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E8E0FF", Dark: "#44475A"}).
		Bold(true)
	t.Current = r.NewStyle().Foreground(t.Highlight).Bold(true)
	return t
}

// GlyphSet maps connector glyphs to the text drawn for them. Every entry is
// four cells wide so ancestor columns line up.
type GlyphSet map[navtree.Glyph]string

// UnicodeGlyphs uses box-drawing characters.
var UnicodeGlyphs = GlyphSet{
	navtree.GlyphBlank:     "    ",
	navtree.GlyphVertLine:  "│   ",
	navtree.GlyphNode:      "├── ",
	navtree.GlyphLastNode:  "└── ",
	navtree.GlyphPlus:      "├─▸ ",
	navtree.GlyphPlusLast:  "└─▸ ",
	navtree.GlyphMinus:     "├─▾ ",
	navtree.GlyphMinusLast: "└─▾ ",
}

// ASCIIGlyphs is for terminals without box-drawing fonts.
var ASCIIGlyphs = GlyphSet{
	navtree.GlyphBlank:     "    ",
	navtree.GlyphVertLine:  "|   ",
	navtree.GlyphNode:      "|-- ",
	navtree.GlyphLastNode:  "`-- ",
	navtree.GlyphPlus:      "|-> ",
	navtree.GlyphPlusLast:  "`-> ",
	navtree.GlyphMinus:     "|-v ",
	navtree.GlyphMinusLast: "`-v ",
}

// GlyphsFor returns the set named by style ("ascii" or anything else for unicode).
func GlyphsFor(style string) GlyphSet {
	if style == "ascii" {
		return ASCIIGlyphs
	}
	return UnicodeGlyphs
}

// Prefix renders the connector cells for glyphs.
func (g GlyphSet) Prefix(glyphs []navtree.Glyph) string {
	var b []byte
	for _, gl := range glyphs {
		b = append(b, g[gl]...)
	}
	return string(b)
}
