package export

import (
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// Snapshot geometry follows the classic 16x22 connector icons.
const (
	cellWidth  = 16.0
	rowHeight  = 22.0
	charWidth  = 7.0 // basicfont.Face7x13 advance
	margin     = 8.0
	labelGap   = 4.0
	toggleSize = 8.0
)

// segment is one connector stroke.
type segment struct {
	X1, Y1, X2, Y2 float64
}

// toggleBox is the square plus/minus marker drawn on parent rows.
type toggleBox struct {
	CX, CY float64
	Open   bool
}

// rowLayout is the drawing plan for one visible node.
type rowLayout struct {
	Node     *navtree.Node
	Top      float64
	TextX    float64
	Baseline float64
	Label    string
	Selected bool
	Linked   bool
	Lines    []segment
	Toggle   *toggleBox
}

// snapshot is the drawing plan for the visible part of a tree.
type snapshot struct {
	Rows   []rowLayout
	Width  float64
	Height float64
}

// layoutTree plans a picture of the rows t currently shows, connectors and
// all, in the same order the terminal and HTML hosts draw them.
func layoutTree(t *navtree.Tree) snapshot {
	nodes := t.VisibleNodes()
	s := snapshot{Width: 2 * margin, Height: 2*margin + float64(len(nodes))*rowHeight}

	for i, n := range nodes {
		top := margin + float64(i)*rowHeight
		mid := top + rowHeight/2
		glyphs := navtree.Connectors(n)

		row := rowLayout{
			Node:     n,
			Top:      top,
			Label:    n.Label(),
			Selected: n.Selected(),
			Linked:   n.Link() != "",
			Baseline: mid + 4,
		}
		for col, g := range glyphs {
			x := margin + float64(col)*cellWidth
			cx := x + cellWidth/2
			row.Lines = append(row.Lines, glyphSegments(g, x, cx, top, mid)...)
			if g.IsToggle() {
				open := g == navtree.GlyphMinus || g == navtree.GlyphMinusLast
				row.Toggle = &toggleBox{CX: cx, CY: mid, Open: open}
			}
		}
		row.TextX = margin + float64(len(glyphs))*cellWidth + labelGap

		right := row.TextX + float64(runewidth.StringWidth(row.Label))*charWidth + margin
		if right > s.Width {
			s.Width = right
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// glyphSegments returns the strokes that draw g in the cell starting at x.
func glyphSegments(g navtree.Glyph, x, cx, top, mid float64) []segment {
	bottom := top + rowHeight
	right := x + cellWidth
	switch g {
	case navtree.GlyphVertLine:
		return []segment{{cx, top, cx, bottom}}
	case navtree.GlyphNode, navtree.GlyphPlus, navtree.GlyphMinus:
		return []segment{{cx, top, cx, bottom}, {cx, mid, right, mid}}
	case navtree.GlyphLastNode, navtree.GlyphPlusLast, navtree.GlyphMinusLast:
		return []segment{{cx, top, cx, mid}, {cx, mid, right, mid}}
	}
	return nil
}
