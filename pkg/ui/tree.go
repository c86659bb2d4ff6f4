// tree.go - Navigation tree pane backed by the navtree engine
package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// TreeModel renders a navtree.Tree as a scrollable list of rows and moves a
// cursor over them. Expansion state lives in the engine; the pane only keeps
// the flattened visible rows.
type TreeModel struct {
	tree     *navtree.Tree
	host     *TermHost
	flatList []*navtree.Node // Visible rows, top to bottom
	cursor   int             // Index into flatList
	theme    Theme
	glyphs   GlyphSet

	width          int
	height         int
	viewportOffset int // Index of the first row on screen
}

// NewTreeModel creates an empty tree pane.
func NewTreeModel(theme Theme, glyphs GlyphSet, host *TermHost) TreeModel {
	if glyphs == nil {
		glyphs = UnicodeGlyphs
	}
	if host == nil {
		host = NewTermHost(0)
	}
	return TreeModel{
		theme:  theme,
		glyphs: glyphs,
		host:   host,
	}
}

// SetTree replaces the tree and puts the cursor on the current page.
func (t *TreeModel) SetTree(tree *navtree.Tree) {
	t.tree = tree
	t.cursor = 0
	t.viewportOffset = 0
	t.Sync()
	if sel := tree.Selected(); sel != nil {
		t.SelectNode(sel)
	}
}

// Tree returns the engine tree, or nil before SetTree.
func (t *TreeModel) Tree() *navtree.Tree {
	return t.tree
}

// Host returns the terminal host the tree was initialized with.
func (t *TreeModel) Host() *TermHost {
	return t.host
}

// SetSize updates the available dimensions for the tree view.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// Sync rebuilds the visible rows from the engine and applies any pending
// center request from the host. Call after every engine operation.
func (t *TreeModel) Sync() {
	cur := t.CursorNode()
	t.rebuildFlatList()
	// A collapsed row hands the cursor to its nearest visible ancestor
	for n := cur; n != nil && !n.IsRoot(); n = n.Parent() {
		if t.SelectNode(n) {
			break
		}
	}
	if n := t.host.takeCenter(); n != nil {
		t.centerOn(n)
	}
}

// rebuildFlatList flattens the visible rows, honoring in-flight slides.
func (t *TreeModel) rebuildFlatList() {
	t.flatList = t.flatList[:0]
	if t.tree != nil {
		t.flatList = t.appendVisible(t.flatList, t.tree.Root())
	}
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// appendVisible appends n's visible descendants to rows. A container that is
// still sliding open contributes only its revealed prefix.
func (t *TreeModel) appendVisible(rows []*navtree.Node, n *navtree.Node) []*navtree.Node {
	c := n.Container()
	if c == nil || !c.Visible {
		return rows
	}
	var sub []*navtree.Node
	for _, child := range n.Children() {
		sub = append(sub, child)
		sub = t.appendVisible(sub, child)
	}
	if !n.IsRoot() {
		sub = sub[:t.host.reveal(c, len(sub))]
	}
	return append(rows, sub...)
}

// View renders the rows inside the viewport.
func (t *TreeModel) View() string {
	if t.tree == nil || len(t.flatList) == 0 {
		return t.renderEmptyState()
	}

	start, end := t.visibleRange()
	var sb strings.Builder
	for i := start; i < end; i++ {
		sb.WriteString(t.renderNode(t.flatList[i], i == t.cursor))
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Navigation"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("The table has no entries."))
	return sb.String()
}

// renderNode renders one row: connectors, then the label.
func (t *TreeModel) renderNode(n *navtree.Node, isCursor bool) string {
	r := t.theme.Renderer

	prefix := t.glyphs.Prefix(navtree.Connectors(n))
	treeStyle := r.NewStyle().Foreground(t.theme.Muted)

	maxLabel := t.width - runewidth.StringWidth(prefix)
	if maxLabel < 8 {
		maxLabel = 8
	}
	label := truncateLabel(n.Label(), maxLabel)

	labelStyle := t.theme.Base
	switch {
	case n.Selected():
		labelStyle = t.theme.Current
	case n.Link() == "":
		labelStyle = r.NewStyle().Foreground(t.theme.Subtext)
	}

	line := treeStyle.Render(prefix) + labelStyle.Render(label)
	if isCursor {
		line = t.theme.Selected.Render(prefix + label)
	}
	return line
}

// truncateLabel shortens s to at most maxWidth display cells with an ellipsis.
func truncateLabel(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// CursorNode returns the row under the cursor, or nil if there are no rows.
func (t *TreeModel) CursorNode() *navtree.Node {
	if t.cursor >= 0 && t.cursor < len(t.flatList) {
		return t.flatList[t.cursor]
	}
	return nil
}

// Cursor returns the cursor row index.
func (t *TreeModel) Cursor() int {
	return t.cursor
}

// Rows returns the visible rows.
func (t *TreeModel) Rows() []*navtree.Node {
	return t.flatList
}

// SelectNode moves the cursor to n if it is visible.
func (t *TreeModel) SelectNode(n *navtree.Node) bool {
	for i, row := range t.flatList {
		if row == n {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.flatList)-1 {
		t.cursor++
	}
	t.ensureCursorVisible()
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.ensureCursorVisible()
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.flatList) > 0 {
		t.cursor = len(t.flatList) - 1
	}
	t.ensureCursorVisible()
}

// JumpToParent moves the cursor to the parent row. Top-level rows stay put.
func (t *TreeModel) JumpToParent() {
	n := t.CursorNode()
	if n == nil || n.Parent() == nil || n.Parent().IsRoot() {
		return
	}
	t.SelectNode(n.Parent())
}

// ToggleExpand sends the toggle event for the cursor row.
func (t *TreeModel) ToggleExpand() navtree.Result {
	return t.dispatch(navtree.EventToggle)
}

// Activate sends the label-activation event for the cursor row. The caller
// handles ActionNavigate.
func (t *TreeModel) Activate() navtree.Result {
	return t.dispatch(navtree.EventActivate)
}

func (t *TreeModel) dispatch(kind navtree.EventKind) navtree.Result {
	n := t.CursorNode()
	if n == nil {
		return navtree.Result{}
	}
	res, err := t.tree.Dispatch(n.ID, kind)
	if err != nil {
		return navtree.Result{}
	}
	t.Sync()
	return res
}

// ExpandOrMoveToChild opens a closed parent, or steps into an open one.
func (t *TreeModel) ExpandOrMoveToChild() {
	n := t.CursorNode()
	if n == nil || !n.HasChildren() {
		return
	}
	if !n.Expanded() {
		t.ToggleExpand()
		return
	}
	if kids := n.Children(); len(kids) > 0 {
		t.SelectNode(kids[0])
	}
}

// CollapseOrJumpToParent closes an open parent, otherwise moves to the parent.
func (t *TreeModel) CollapseOrJumpToParent() {
	n := t.CursorNode()
	if n == nil {
		return
	}
	if n.HasChildren() && n.Expanded() {
		t.ToggleExpand()
		return
	}
	t.JumpToParent()
}

// ExpandAll opens every parent.
func (t *TreeModel) ExpandAll() {
	if t.tree == nil {
		return
	}
	t.tree.ExpandAll()
	t.Sync()
}

// CollapseAll closes every parent. The cursor moves to the top-level row it
// was under.
func (t *TreeModel) CollapseAll() {
	if t.tree == nil {
		return
	}
	top := t.CursorNode()
	for top != nil && top.Parent() != nil && !top.Parent().IsRoot() {
		top = top.Parent()
	}
	t.tree.CollapseAll()
	t.Sync()
	if top != nil {
		t.SelectNode(top)
	}
}

// CenterOnCurrent moves the cursor to the current page and centers it.
func (t *TreeModel) CenterOnCurrent() {
	if t.tree == nil || t.tree.Selected() == nil {
		return
	}
	sel := t.tree.Selected()
	t.SelectNode(sel)
	t.centerOn(sel)
}

// PageDown moves the cursor down by half a viewport.
func (t *TreeModel) PageDown() {
	t.cursor += t.pageSize()
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// PageUp moves the cursor up by half a viewport.
func (t *TreeModel) PageUp() {
	t.cursor -= t.pageSize()
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

func (t *TreeModel) pageSize() int {
	size := t.height / 2
	if size < 1 {
		size = 5
	}
	return size
}

func (t *TreeModel) rowsOnScreen() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

// centerOn scrolls so that n's row sits in the middle of the viewport.
func (t *TreeModel) centerOn(n *navtree.Node) {
	for i, row := range t.flatList {
		if row == n {
			t.viewportOffset = i - t.rowsOnScreen()/2
			t.clampOffset()
			return
		}
	}
}

// ensureCursorVisible scrolls the minimum needed to keep the cursor on screen.
func (t *TreeModel) ensureCursorVisible() {
	visible := t.rowsOnScreen()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	} else if t.cursor >= t.viewportOffset+visible {
		t.viewportOffset = t.cursor - visible + 1
	}
	t.clampOffset()
}

func (t *TreeModel) clampOffset() {
	maxOffset := len(t.flatList) - t.rowsOnScreen()
	if t.viewportOffset > maxOffset {
		t.viewportOffset = maxOffset
	}
	if t.viewportOffset < 0 {
		t.viewportOffset = 0
	}
}

// visibleRange returns the [start, end) rows on screen.
func (t *TreeModel) visibleRange() (start, end int) {
	if len(t.flatList) == 0 {
		return 0, 0
	}
	start = t.viewportOffset
	end = start + t.rowsOnScreen()
	if end > len(t.flatList) {
		end = len(t.flatList)
	}
	if start > end {
		start = end
	}
	return start, end
}

// ViewportOffset returns the index of the first row on screen.
func (t *TreeModel) ViewportOffset() int {
	return t.viewportOffset
}

// NodeCount returns the number of visible rows.
func (t *TreeModel) NodeCount() int {
	return len(t.flatList)
}
