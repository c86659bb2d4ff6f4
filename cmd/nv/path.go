package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/export"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <page> [table]",
		Short: "Show where a page sits in the tree",
		Long: `Resolve a page URL against the table and print the index path and
breadcrumb of the entry it selects. Links must match exactly; a page not in
the table falls back to the configured fallback page.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := a.loadTable(args[1:])
			if err != nil {
				return err
			}
			resp := export.ResolvePath(args[0], table, a.navOptions())
			if a.jsonOut {
				return a.writeJSON(resp)
			}
			_, err = fmt.Fprint(a.out, formatPath(resp))
			return err
		},
	}
}

// formatPath renders a path response for humans.
func formatPath(resp export.PathResponse) string {
	if !resp.Found {
		return fmt.Sprintf("%s: not in table\n", resp.Page)
	}
	labels := make([]string, len(resp.Breadcrumb))
	for i, c := range resp.Breadcrumb {
		labels[i] = c.Label
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", strings.Join(labels, " > "), model.FormatPath(resp.Path))
	if resp.Fallback {
		fmt.Fprintf(&b, "(%s not in table, showing %s)\n", resp.Page, resp.Resolved)
	}
	return b.String()
}
