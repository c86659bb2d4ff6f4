package model

import (
	"fmt"
	"strings"
)

// Entry is one row of the hierarchy table produced by the documentation
// generator: a label, an optional link and an optional list of children.
//
// An empty Link means the entry has no page of its own. An entry whose
// Children slice is nil or empty is a leaf.
type Entry struct {
	Label    string  `json:"label" yaml:"label"`
	Link     string  `json:"link,omitempty" yaml:"link,omitempty"`
	Summary  string  `json:"summary,omitempty" yaml:"summary,omitempty"` // Optional markdown blurb
	Children []Entry `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsLeaf reports whether the entry offers no children. A non-leaf entry
// declared with an empty children list is treated as a leaf.
func (e Entry) IsLeaf() bool {
	return len(e.Children) == 0
}

// HasLink reports whether the entry points at a page.
func (e Entry) HasLink() bool {
	return e.Link != ""
}

// Clone creates a deep copy of the entry
func (e Entry) Clone() Entry {
	clone := e
	if e.Children != nil {
		clone.Children = make([]Entry, len(e.Children))
		for i, child := range e.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// Table is the whole hierarchy as loaded from disk.
type Table struct {
	Entries []Entry `json:"entries" yaml:"entries"`
	Source  string  `json:"-" yaml:"-"` // Path the table was loaded from
}

// WalkFunc is called for every entry in pre-order. path holds the child
// indices from the top level down to the entry. Returning false stops the walk.
type WalkFunc func(e *Entry, path []int) bool

// Walk visits every entry in document (pre-order) order.
func (t *Table) Walk(fn WalkFunc) {
	walkEntries(t.Entries, nil, fn)
}

func walkEntries(entries []Entry, prefix []int, fn WalkFunc) bool {
	for i := range entries {
		path := append(append([]int(nil), prefix...), i)
		if !fn(&entries[i], path) {
			return false
		}
		if !entries[i].IsLeaf() {
			if !walkEntries(entries[i].Children, path, fn) {
				return false
			}
		}
	}
	return true
}

// Lookup returns the entry at the given index path.
func (t *Table) Lookup(path []int) (*Entry, bool) {
	if len(path) == 0 {
		return nil, false
	}
	entries := t.Entries
	var e *Entry
	for _, idx := range path {
		if idx < 0 || idx >= len(entries) {
			return nil, false
		}
		e = &entries[idx]
		entries = e.Children
	}
	return e, true
}

// Count returns the total number of entries at every level.
func (t *Table) Count() int {
	n := 0
	t.Walk(func(*Entry, []int) bool {
		n++
		return true
	})
	return n
}

// MaxDepth returns the depth of the deepest entry (top-level entries are depth 1).
func (t *Table) MaxDepth() int {
	max := 0
	t.Walk(func(_ *Entry, path []int) bool {
		if len(path) > max {
			max = len(path)
		}
		return true
	})
	return max
}

// DuplicateLink records a link that appears on more than one entry.
type DuplicateLink struct {
	Link  string
	Paths [][]int // Index paths in document order; the first one wins
}

// Warnings lists entries that render oddly but are still shown: labels that
// are blank and links that appear more than once.
type Warnings struct {
	EmptyLabels [][]int // Index paths of entries whose label is blank
	Duplicates  []DuplicateLink
}

// Empty reports whether nothing was found.
func (w Warnings) Empty() bool {
	return len(w.EmptyLabels) == 0 && len(w.Duplicates) == 0
}

// Validate scans the table for entries worth warning about. Nothing it finds
// stops a table from rendering: a blank label draws an empty row and the
// first of several duplicate links is the one pages resolve to.
func (t *Table) Validate() Warnings {
	var w Warnings
	seen := make(map[string]int)
	var dups []DuplicateLink

	t.Walk(func(e *Entry, path []int) bool {
		if strings.TrimSpace(e.Label) == "" {
			w.EmptyLabels = append(w.EmptyLabels, path)
		}
		if !e.HasLink() {
			return true
		}
		if idx, ok := seen[e.Link]; ok {
			dups[idx].Paths = append(dups[idx].Paths, path)
			return true
		}
		seen[e.Link] = len(dups)
		dups = append(dups, DuplicateLink{Link: e.Link, Paths: [][]int{path}})
		return true
	})

	// Only links seen more than once are duplicates
	for _, d := range dups {
		if len(d.Paths) > 1 {
			w.Duplicates = append(w.Duplicates, d)
		}
	}
	return w
}

// FormatPath renders an index path the way the CLI prints it, e.g. "1/0/3".
func FormatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, "/")
}
