package navtree

import (
	"strings"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

// DefaultFallbackPage is tried when the current page is not in the table.
const DefaultFallbackPage = "index.html"

// Options tunes tree initialization.
type Options struct {
	// FallbackPage is resolved when the current URL matches nothing.
	FallbackPage string

	// RelPath is prepended to every link (the page's path back to the docs root).
	RelPath string

	// RecenterAfterExpand scrolls the selected node back to the center each
	// time an animated expand finishes.
	RecenterAfterExpand bool
}

// DefaultOptions returns options with the conventional index page fallback.
func DefaultOptions() Options {
	return Options{FallbackPage: DefaultFallbackPage}
}

// Tree is the navigation tree for one displayed page. It is created once per
// page load by Initialize and handed explicitly to whatever handles events.
type Tree struct {
	root     *Node
	nodes    []*Node // Indexed by NodeID
	host     Host
	opts     Options
	table    model.Table
	page     string // URL the breadcrumb resolved against
	path     []int
	selected *Node
	loaded   bool
}

// Initialize builds the tree for currentURL: the top level is materialized
// eagerly, the breadcrumb path is resolved (falling back to the index page),
// every node on it is expanded immediately and the last one is selected.
// An unresolvable page yields a flat tree with nothing selected.
func Initialize(currentURL string, table model.Table, host Host, opts Options) *Tree {
	if host == nil {
		host = NopHost{}
	}
	if opts.FallbackPage == "" {
		opts.FallbackPage = DefaultFallbackPage
	}

	root := &Node{
		ID:    RootID,
		Entry: &model.Entry{Children: table.Entries},
		state: StateExpanded,
	}
	t := &Tree{
		root:  root,
		nodes: []*Node{root},
		host:  host,
		opts:  opts,
		table: table,
	}

	// The top level is attached and visible from the start
	c := root.childContainer()
	c.Visible = true
	root.expanded = true
	host.ShowNow(c)
	t.materialize(root)

	t.page = currentURL
	path := FindPath(currentURL, table.Entries)
	if path == nil {
		t.page = opts.FallbackPage
		path = FindPath(opts.FallbackPage, table.Entries)
	}
	if len(path) == 0 {
		t.page = ""
		return t
	}

	p := root
	for _, idx := range path {
		children := t.Materialize(p)
		if idx < 0 || idx >= len(children) {
			return t
		}
		p = children[idx]
		t.expand(p, true)
	}
	t.path = path
	t.selected = p
	p.selected = true
	return t
}

// Loaded is the host's signal that the page has finished loading. The first
// call scrolls the selected node into the middle of the viewport.
func (t *Tree) Loaded() {
	if t.loaded {
		return
	}
	t.loaded = true
	if t.selected != nil {
		t.host.ScrollToCenter(t.selected)
	}
}

// Root returns the invisible root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Node returns the materialized node with the given id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// NodeCount returns how many nodes have been materialized, root included.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// Selected returns the node for the current page, or nil.
func (t *Tree) Selected() *Node {
	return t.selected
}

// Path returns the resolved breadcrumb path, nil when nothing matched.
func (t *Tree) Path() []int {
	if t.path == nil {
		return nil
	}
	return append([]int(nil), t.path...)
}

// Page returns the URL the breadcrumb resolved against: the current URL, the
// fallback page, or "" when neither was found.
func (t *Tree) Page() string {
	return t.page
}

// Table returns the hierarchy the tree renders.
func (t *Tree) Table() model.Table {
	return t.table
}

// Options returns the options the tree was built with.
func (t *Tree) Options() Options {
	return t.opts
}

// Href returns the navigable link for n with the relative prefix applied.
func (t *Tree) Href(n *Node) string {
	link := n.Link()
	if link == "" {
		return ""
	}
	if t.opts.RelPath == "" || strings.Contains(link, "://") {
		return link
	}
	return t.opts.RelPath + link
}

// Breadcrumb returns the nodes from the top level down to the selected node.
func (t *Tree) Breadcrumb() []*Node {
	if t.selected == nil {
		return nil
	}
	return append(t.selected.Ancestors(), t.selected)
}

// Walk visits materialized nodes below the root in document order. Returning
// false from fn skips that node's subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.children {
			if fn(child) {
				walk(child)
			}
		}
	}
	walk(t.root)
}

// VisibleNodes returns the rows currently shown, top to bottom: every node
// whose ancestors all have visible child containers.
func (t *Tree) VisibleNodes() []*Node {
	var rows []*Node
	t.Walk(func(n *Node) bool {
		rows = append(rows, n)
		return n.container != nil && n.container.Visible
	})
	return rows
}

// selectedCount counts nodes flagged as selected.
func (t *Tree) selectedCount() int {
	count := 0
	for _, n := range t.nodes {
		if n.selected {
			count++
		}
	}
	return count
}
