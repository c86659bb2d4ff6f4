package navtree

import "github.com/Dicklesworthstone/navtree_viewer/pkg/model"

// NodeID identifies a materialized node within one Tree. IDs are assigned in
// materialization order; the root is always 0.
type NodeID int

// RootID is the ID of the invisible root node.
const RootID NodeID = 0

// Node is one materialized row of the navigation tree.
//
// Nodes are created only by the materializer and live as long as the Tree.
// A node's children are built on its first expansion and never rebuilt.
type Node struct {
	ID     NodeID
	Depth  int          // Distance from the root (root = 0)
	IsLast bool         // Last among its parent's children
	Entry  *model.Entry // Hierarchy entry this node renders (not owned)

	selected     bool
	parent       *Node // Back-reference, nil for the root
	children     []*Node
	materialized bool
	expanded     bool
	state        State
	container    *Container
	generation   uint64 // Bumped on every show/hide so stale completions are ignored
}

// Parent returns the owning node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the materialized children. The slice is empty until the
// node has been expanded once and must not be modified by callers.
func (n *Node) Children() []*Node {
	return n.children
}

// Label is the display text of the node.
func (n *Node) Label() string {
	if n.Entry == nil {
		return ""
	}
	return n.Entry.Label
}

// Link is the raw link of the entry, without any relative prefix.
func (n *Node) Link() string {
	if n.Entry == nil {
		return ""
	}
	return n.Entry.Link
}

// HasChildren reports whether the node can be expanded. Entries with an empty
// children list count as leaves.
func (n *Node) HasChildren() bool {
	return n.Entry != nil && !n.Entry.IsLeaf()
}

// Expanded reports whether the node's children are currently shown.
func (n *Node) Expanded() bool {
	return n.expanded
}

// State returns the node's position in the expand/collapse state machine.
func (n *Node) State() State {
	return n.state
}

// Selected reports whether this node is the current page.
func (n *Node) Selected() bool {
	return n.selected
}

// Container returns the child container, or nil if none was created yet.
func (n *Node) Container() *Container {
	return n.container
}

// IsRoot reports whether n is the invisible root.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// childContainer lazily creates the hidden container for n's children.
func (n *Node) childContainer() *Container {
	if n.container == nil {
		n.container = &Container{Owner: n}
	}
	return n.container
}

// Ancestors returns the node's ancestors from the top visible level down to
// its parent. The invisible root is not included.
func (n *Node) Ancestors() []*Node {
	var ancestors []*Node
	for p := n.parent; p != nil && !p.IsRoot(); p = p.parent {
		ancestors = append([]*Node{p}, ancestors...)
	}
	return ancestors
}

// Activation describes what happens when the node's label is activated.
type Activation int

const (
	ActivateNone     Activation = iota // Unlinked leaf: nothing to do
	ActivateNavigate                   // Follow the entry's link
	ActivateToggle                     // Unlinked parent: same as the expand toggle
)

// Activation returns the label's activation target.
func (n *Node) Activation() Activation {
	switch {
	case n.Link() != "":
		return ActivateNavigate
	case n.HasChildren():
		return ActivateToggle
	default:
		return ActivateNone
	}
}
