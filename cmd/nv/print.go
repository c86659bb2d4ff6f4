package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/ui"
)

func newPrintCmd(a *app) *cobra.Command {
	var (
		page string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "print [table]",
		Short: "Print the tree as it appears on a page",
		Long: `Print the rows visible on a page: the page's entry is marked with '*' and
only its ancestors are open. --all opens every branch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := a.loadTable(args)
			if err != nil {
				return err
			}
			return a.printTree(table, a.pageOr(page), all)
		},
	}
	cmd.Flags().StringVarP(&page, "page", "p", "", "page to select (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "expand every branch")
	return cmd
}

// renderText draws one line per visible row: connectors, then the label.
func renderText(t *navtree.Tree, glyphs ui.GlyphSet) string {
	rows := t.VisibleNodes()
	if len(rows) == 0 {
		return "(empty table)\n"
	}
	var b strings.Builder
	for _, n := range rows {
		b.WriteString(glyphs.Prefix(navtree.Connectors(n)))
		b.WriteString(n.Label())
		if n.Selected() {
			b.WriteString(" *")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// treeRow is the JSON form of one visible row.
type treeRow struct {
	ID         int      `json:"id"`
	Depth      int      `json:"depth"`
	Label      string   `json:"label"`
	Link       string   `json:"link,omitempty"`
	Href       string   `json:"href,omitempty"`
	Expandable bool     `json:"expandable"`
	Expanded   bool     `json:"expanded"`
	Selected   bool     `json:"selected"`
	Connectors []string `json:"connectors"`
}

func treeRows(t *navtree.Tree) []treeRow {
	rows := []treeRow{}
	for _, n := range t.VisibleNodes() {
		glyphs := navtree.Connectors(n)
		names := make([]string, len(glyphs))
		for i, g := range glyphs {
			names[i] = g.String()
		}
		rows = append(rows, treeRow{
			ID:         int(n.ID),
			Depth:      n.Depth,
			Label:      n.Label(),
			Link:       n.Link(),
			Href:       t.Href(n),
			Expandable: n.HasChildren(),
			Expanded:   n.Expanded(),
			Selected:   n.Selected(),
			Connectors: names,
		})
	}
	return rows
}
