// Package analysis computes structural statistics about a navigation table:
// how deep it goes, how wide its branches fan out, and which branches hold
// most of the pages.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
	"gonum.org/v1/gonum/stat"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

// Branch is a parent entry ranked by the size of its subtree.
type Branch struct {
	Label       string `json:"label"`
	Path        string `json:"path"`
	Depth       int    `json:"depth"`
	Descendants int    `json:"descendants"`
	Pages       int    `json:"pages"` // linked descendants
}

// Shape summarizes a table.
type Shape struct {
	Entries        int      `json:"entries"`
	Linked         int      `json:"linked"`
	Unlinked       int      `json:"unlinked"`
	Leaves         int      `json:"leaves"`
	Parents        int      `json:"parents"`
	TopLevel       int      `json:"top_level"`
	MaxDepth       int      `json:"max_depth"`
	DepthMean      float64  `json:"depth_mean"`
	DepthStdDev    float64  `json:"depth_stddev"`
	FanOutMean     float64  `json:"fanout_mean"`
	FanOutStdDev   float64  `json:"fanout_stddev"`
	FanOutMax      int      `json:"fanout_max"`
	LeafRatio      float64  `json:"leaf_ratio"`
	DepthHistogram []int    `json:"depth_histogram"` // entries per level, top level first
	DuplicateLinks int      `json:"duplicate_links"`
	EmptyLabels    int      `json:"empty_labels"`
	Widest         []Branch `json:"widest"`
}

// treeGraph is the table as a directed graph: node 0 is the invisible root,
// every entry gets the id of its pre-order position plus one.
type treeGraph struct {
	g       *simple.DirectedGraph
	entries map[int64]*model.Entry
	paths   map[int64][]int
}

func buildGraph(table *model.Table) treeGraph {
	tg := treeGraph{
		g:       simple.NewDirectedGraph(),
		entries: make(map[int64]*model.Entry),
		paths:   make(map[int64][]int),
	}
	tg.g.AddNode(simple.Node(0))

	byPath := map[string]int64{"": 0}
	var next int64 = 1
	table.Walk(func(e *model.Entry, path []int) bool {
		id := next
		next++
		tg.g.AddNode(simple.Node(id))
		tg.entries[id] = e
		tg.paths[id] = path

		parent := byPath[model.FormatPath(path[:len(path)-1])]
		tg.g.SetEdge(tg.g.NewEdge(simple.Node(parent), simple.Node(id)))
		byPath[model.FormatPath(path)] = id
		return true
	})
	return tg
}

// Analyze computes the shape of table. top limits the Widest list; zero
// means five.
func Analyze(table model.Table, top int) Shape {
	if top <= 0 {
		top = 5
	}
	tg := buildGraph(&table)
	s := Shape{
		Entries:  len(tg.entries),
		TopLevel: len(table.Entries),
		Widest:   []Branch{},
	}
	if s.Entries == 0 {
		s.DepthHistogram = []int{}
		return s
	}

	var depths, fanouts []float64
	bf := traverse.BreadthFirst{}
	bf.Walk(tg.g, simple.Node(0), func(n graph.Node, d int) bool {
		if n.ID() == 0 {
			return false
		}
		e := tg.entries[n.ID()]
		depths = append(depths, float64(d))
		for len(s.DepthHistogram) < d {
			s.DepthHistogram = append(s.DepthHistogram, 0)
		}
		s.DepthHistogram[d-1]++
		if d > s.MaxDepth {
			s.MaxDepth = d
		}

		if e.HasLink() {
			s.Linked++
		} else {
			s.Unlinked++
		}
		if e.IsLeaf() {
			s.Leaves++
			return false
		}
		s.Parents++
		fan := tg.g.From(n.ID()).Len()
		fanouts = append(fanouts, float64(fan))
		if fan > s.FanOutMax {
			s.FanOutMax = fan
		}
		return false
	})

	s.DepthMean, s.DepthStdDev = meanStdDev(depths)
	s.FanOutMean, s.FanOutStdDev = meanStdDev(fanouts)
	s.LeafRatio = float64(s.Leaves) / float64(s.Entries)

	warnings := table.Validate()
	s.DuplicateLinks = len(warnings.Duplicates)
	s.EmptyLabels = len(warnings.EmptyLabels)

	s.Widest = widest(tg, top)
	return s
}

// meanStdDev is stat.MeanStdDev with a zero deviation for single samples.
func meanStdDev(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// widest ranks parents by descendant count, breaking ties by document order.
func widest(tg treeGraph, top int) []Branch {
	type ranked struct {
		Branch
		path []int
	}
	var branches []ranked
	for id, e := range tg.entries {
		if e.IsLeaf() {
			continue
		}
		r := ranked{
			Branch: Branch{
				Label: e.Label,
				Path:  model.FormatPath(tg.paths[id]),
				Depth: len(tg.paths[id]),
			},
			path: tg.paths[id],
		}
		df := traverse.DepthFirst{Visit: func(n graph.Node) {
			if n.ID() == id {
				return
			}
			r.Descendants++
			if tg.entries[n.ID()].HasLink() {
				r.Pages++
			}
		}}
		df.Walk(tg.g, simple.Node(id), nil)
		branches = append(branches, r)
	}

	sort.Slice(branches, func(i, j int) bool {
		if branches[i].Descendants != branches[j].Descendants {
			return branches[i].Descendants > branches[j].Descendants
		}
		return lessPath(branches[i].path, branches[j].path)
	})

	out := make([]Branch, 0, top)
	for i := 0; i < len(branches) && i < top; i++ {
		out = append(out, branches[i].Branch)
	}
	return out
}

func lessPath(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
