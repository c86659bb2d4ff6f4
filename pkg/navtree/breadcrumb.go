package navtree

import "github.com/Dicklesworthstone/navtree_viewer/pkg/model"

// FindPath searches entries depth-first in document order for the first
// entry whose link equals target and returns the child indices leading to
// it. It returns nil when nothing matches. An empty target never matches.
func FindPath(target string, entries []model.Entry) []int {
	if target == "" {
		return nil
	}
	return findPath(target, entries)
}

func findPath(target string, entries []model.Entry) []int {
	for i := range entries {
		e := &entries[i]
		if e.Link == target {
			return []int{i}
		}
		if e.IsLeaf() {
			continue
		}
		if rest := findPath(target, e.Children); rest != nil {
			return append([]int{i}, rest...)
		}
	}
	return nil
}
