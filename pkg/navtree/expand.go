package navtree

import (
	"errors"
	"fmt"
)

// State is a node's position in the expand/collapse state machine.
type State int

const (
	StateLeaf       State = iota // No children, never toggles
	StateCollapsed               // Initial state for parents
	StateExpanding               // Show animation in flight
	StateExpanded                // Children visible
	StateCollapsing              // Hide issued (transient)
)

func (s State) String() string {
	switch s {
	case StateLeaf:
		return "leaf"
	case StateCollapsed:
		return "collapsed"
	case StateExpanding:
		return "expanding"
	case StateExpanded:
		return "expanded"
	case StateCollapsing:
		return "collapsing"
	}
	return "unknown"
}

// Toggle flips n between collapsed and expanded using the slide animation.
// Returns false for leaves, which have no toggle.
func (t *Tree) Toggle(n *Node) bool {
	if n == nil || !n.HasChildren() {
		return false
	}
	if n.expanded {
		t.collapse(n)
	} else {
		t.expand(n, false)
	}
	return true
}

// Expand opens n. With immediate set the children are shown synchronously,
// which is what initialization uses along the breadcrumb path.
func (t *Tree) Expand(n *Node, immediate bool) {
	if n == nil {
		return
	}
	t.expand(n, immediate)
}

// Collapse closes n if it is open.
func (t *Tree) Collapse(n *Node) {
	if n == nil {
		return
	}
	t.collapse(n)
}

func (t *Tree) expand(n *Node, immediate bool) {
	if !n.HasChildren() || n.expanded {
		return
	}
	if !n.materialized {
		t.materialize(n)
	}

	c := n.childContainer()
	n.expanded = true
	c.Visible = true
	n.generation++

	if immediate {
		t.host.ShowNow(c)
		n.state = StateExpanded
		return
	}

	n.state = StateExpanding
	gen := n.generation
	t.host.AnimateShow(c, func() {
		// A hide issued after this show wins
		if n.generation != gen || !n.expanded {
			return
		}
		n.state = StateExpanded
		if t.opts.RecenterAfterExpand && t.loaded && t.selected != nil {
			t.host.ScrollToCenter(t.selected)
		}
	})
}

func (t *Tree) collapse(n *Node) {
	if !n.expanded {
		return
	}
	n.generation++
	n.state = StateCollapsing
	n.expanded = false
	n.container.Visible = false
	t.host.AnimateHide(n.container)
	n.state = StateCollapsed
}

// ExpandAll opens every parent in the tree, materializing as it goes.
func (t *Tree) ExpandAll() {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.IsRoot() {
			t.expand(n, true)
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(t.root)
}

// CollapseAll closes every open node below the root. Materialized children
// are kept.
func (t *Tree) CollapseAll() {
	for _, n := range t.nodes {
		if !n.IsRoot() && n.expanded {
			t.collapse(n)
		}
	}
}

// EventKind is a user interaction the tree reacts to.
type EventKind int

const (
	EventToggle   EventKind = iota // Expand toggle clicked
	EventActivate                  // Label clicked
)

func (k EventKind) String() string {
	switch k {
	case EventToggle:
		return "toggle"
	case EventActivate:
		return "activate"
	}
	return "unknown"
}

// Action is the outcome of a dispatched event.
type Action int

const (
	ActionNone     Action = iota // Nothing happened
	ActionToggled                // Node expanded or collapsed
	ActionNavigate               // Host should load Result.Link
)

// Result reports what Dispatch did.
type Result struct {
	Action Action
	Node   *Node
	Link   string // Href to load for ActionNavigate
}

var (
	// ErrUnknownNode is returned when an event names a node that does not exist.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownEvent is returned for an event kind without a transition.
	ErrUnknownEvent = errors.New("unknown event kind")
)

type transition func(t *Tree, n *Node) Result

// dispatchTable maps an event kind to its state transition.
var dispatchTable = map[EventKind]transition{
	EventToggle:   toggleTransition,
	EventActivate: activateTransition,
}

func toggleTransition(t *Tree, n *Node) Result {
	if t.Toggle(n) {
		return Result{Action: ActionToggled, Node: n}
	}
	return Result{Action: ActionNone, Node: n}
}

func activateTransition(t *Tree, n *Node) Result {
	switch n.Activation() {
	case ActivateNavigate:
		return Result{Action: ActionNavigate, Node: n, Link: t.Href(n)}
	case ActivateToggle:
		return toggleTransition(t, n)
	}
	return Result{Action: ActionNone, Node: n}
}

// Dispatch routes an event for node id through the dispatch table.
func (t *Tree) Dispatch(id NodeID, kind EventKind) (Result, error) {
	n := t.Node(id)
	if n == nil || n.IsRoot() {
		return Result{}, fmt.Errorf("dispatch %s to node %d: %w", kind, id, ErrUnknownNode)
	}
	tr, ok := dispatchTable[kind]
	if !ok {
		return Result{}, fmt.Errorf("dispatch %d: %w", kind, ErrUnknownEvent)
	}
	return tr(t, n), nil
}
