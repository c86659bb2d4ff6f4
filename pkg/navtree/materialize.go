package navtree

// materialize builds one child node per entry of parent and registers each
// with the host inside parent's child container. Runs at most once per node.
func (t *Tree) materialize(parent *Node) {
	if parent.materialized {
		return
	}
	parent.materialized = true

	if !parent.HasChildren() {
		return
	}

	entries := parent.Entry.Children
	c := parent.childContainer()
	last := len(entries) - 1

	for i := range entries {
		child := &Node{
			ID:     NodeID(len(t.nodes)),
			Depth:  parent.Depth + 1,
			IsLast: i == last,
			Entry:  &entries[i],
			parent: parent,
		}
		if child.HasChildren() {
			child.state = StateCollapsed
		} else {
			child.state = StateLeaf
		}

		t.nodes = append(t.nodes, child)
		parent.children = append(parent.children, child)
		c.Nodes = append(c.Nodes, child)
		t.host.Insert(c, child)
	}
}

// Materialize builds n's children if that has not happened yet and returns
// them. Calling it again returns the same nodes.
func (t *Tree) Materialize(n *Node) []*Node {
	t.materialize(n)
	return n.children
}
