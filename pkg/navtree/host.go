// Package navtree is the engine behind the documentation navigation tree:
// lazy node materialization, connector glyphs, the expand/collapse state
// machine and the breadcrumb search that opens the tree on the current page.
//
// The engine draws nothing itself. Everything visual goes through a Host,
// so the same tree drives the terminal navigator and the HTML export.
package navtree

// Container is the (initially hidden) list that holds a node's children once
// they have been materialized. Hosts attach whatever visual state they need to
// it; the engine only tracks membership and visibility.
type Container struct {
	Owner   *Node   // Node whose children live here
	Nodes   []*Node // Children in insertion order
	Visible bool    // false until the owner is first expanded

	// HostData is free for the host to use (DOM element, row cache, ...).
	HostData any
}

// Host is the set of side-effecting capabilities the tree consumes.
// All calls happen on the caller's goroutine.
type Host interface {
	// Insert registers a freshly materialized node inside parent.
	Insert(parent *Container, n *Node)

	// AnimateShow reveals c with a slide and calls done when the slide ends.
	// A later AnimateHide on the same container supersedes it.
	AnimateShow(c *Container, done func())

	// AnimateHide hides c with a slide. State has already flipped.
	AnimateHide(c *Container)

	// ShowNow reveals c without animation.
	ShowNow(c *Container)

	// ScrollToCenter scrolls n to the vertical middle of the viewport.
	ScrollToCenter(n *Node)
}

// NopHost satisfies Host without drawing anything. Animations complete
// synchronously, which makes it the host of choice for batch rendering.
type NopHost struct{}

func (NopHost) Insert(*Container, *Node) {}

func (NopHost) AnimateShow(_ *Container, done func()) {
	if done != nil {
		done()
	}
}

func (NopHost) AnimateHide(*Container) {}

func (NopHost) ShowNow(*Container) {}

func (NopHost) ScrollToCenter(*Node) {}
