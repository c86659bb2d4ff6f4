package navtree

// Glyph is one connector cell drawn in front of a node's label.
type Glyph int

const (
	GlyphBlank     Glyph = iota // Ancestor level with no later sibling
	GlyphVertLine               // Ancestor level with a later sibling
	GlyphNode                   // Leaf, more siblings follow
	GlyphLastNode               // Leaf, last sibling
	GlyphPlus                   // Closed toggle, more siblings follow
	GlyphPlusLast               // Closed toggle, last sibling
	GlyphMinus                  // Open toggle, more siblings follow
	GlyphMinusLast              // Open toggle, last sibling
)

var glyphAssets = map[Glyph]string{
	GlyphBlank:     "ftv2blank.png",
	GlyphVertLine:  "ftv2vertline.png",
	GlyphNode:      "ftv2node.png",
	GlyphLastNode:  "ftv2lastnode.png",
	GlyphPlus:      "ftv2pnode.png",
	GlyphPlusLast:  "ftv2plastnode.png",
	GlyphMinus:     "ftv2mnode.png",
	GlyphMinusLast: "ftv2mlastnode.png",
}

// Asset returns the icon file name the HTML theme uses for the glyph.
func (g Glyph) Asset() string {
	return glyphAssets[g]
}

// IsToggle reports whether the glyph is the clickable expand toggle.
func (g Glyph) IsToggle() bool {
	switch g {
	case GlyphPlus, GlyphPlusLast, GlyphMinus, GlyphMinusLast:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (g Glyph) String() string {
	switch g {
	case GlyphBlank:
		return "blank"
	case GlyphVertLine:
		return "vertline"
	case GlyphNode:
		return "node"
	case GlyphLastNode:
		return "lastnode"
	case GlyphPlus:
		return "plus"
	case GlyphPlusLast:
		return "pluslast"
	case GlyphMinus:
		return "minus"
	case GlyphMinusLast:
		return "minuslast"
	}
	return "unknown"
}

// Lineage is an immutable snapshot of everything the connector computation
// needs about a node, taken at render time.
type Lineage struct {
	AncestorLast []bool // IsLast of each visible ancestor, outermost first
	IsLast       bool
	HasChildren  bool
	Expanded     bool
}

// LineageOf snapshots n and its ancestor chain by climbing parent references.
func LineageOf(n *Node) Lineage {
	l := Lineage{
		IsLast:      n.IsLast,
		HasChildren: n.HasChildren(),
		Expanded:    n.expanded,
	}
	l.AncestorLast = ancestorLast(n.parent, nil)
	return l
}

// ancestorLast recurses up to (but excluding) the invisible root and returns
// the flags outermost first.
func ancestorLast(p *Node, acc []bool) []bool {
	if p == nil || p.IsRoot() {
		return acc
	}
	return append(ancestorLast(p.parent, acc), p.IsLast)
}

// ConnectorsFor computes the glyphs for a lineage, ordered from the
// outermost ancestor level to the node's own level.
func ConnectorsFor(l Lineage) []Glyph {
	glyphs := make([]Glyph, 0, len(l.AncestorLast)+1)
	for _, last := range l.AncestorLast {
		if last {
			glyphs = append(glyphs, GlyphBlank)
		} else {
			glyphs = append(glyphs, GlyphVertLine)
		}
	}
	return append(glyphs, ownGlyph(l))
}

func ownGlyph(l Lineage) Glyph {
	switch {
	case l.HasChildren && l.Expanded && l.IsLast:
		return GlyphMinusLast
	case l.HasChildren && l.Expanded:
		return GlyphMinus
	case l.HasChildren && l.IsLast:
		return GlyphPlusLast
	case l.HasChildren:
		return GlyphPlus
	case l.IsLast:
		return GlyphLastNode
	default:
		return GlyphNode
	}
}

// Connectors returns the glyphs drawn in front of n. The invisible root has none.
func Connectors(n *Node) []Glyph {
	if n == nil || n.IsRoot() {
		return nil
	}
	return ConnectorsFor(LineageOf(n))
}
