package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/analysis"
)

func newStatsCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats [table]",
		Short: "Summarize the shape of a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := a.loadTable(args)
			if err != nil {
				return err
			}
			shape := analysis.Analyze(table, top)
			if a.jsonOut {
				return a.writeJSON(shape)
			}
			_, err = fmt.Fprint(a.out, formatShape(shape))
			return err
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of widest branches to list")
	return cmd
}

func formatShape(s analysis.Shape) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entries:    %d (%d linked, %d without a page)\n", s.Entries, s.Linked, s.Unlinked)
	fmt.Fprintf(&b, "Top level:  %d\n", s.TopLevel)
	fmt.Fprintf(&b, "Leaves:     %d (%.0f%%)\n", s.Leaves, s.LeafRatio*100)
	fmt.Fprintf(&b, "Depth:      max %d, mean %.2f ± %.2f\n", s.MaxDepth, s.DepthMean, s.DepthStdDev)
	fmt.Fprintf(&b, "Fan-out:    max %d, mean %.2f ± %.2f\n", s.FanOutMax, s.FanOutMean, s.FanOutStdDev)
	if s.DuplicateLinks > 0 {
		fmt.Fprintf(&b, "Duplicates: %d links appear more than once\n", s.DuplicateLinks)
	}
	if s.EmptyLabels > 0 {
		fmt.Fprintf(&b, "Unlabeled:  %d entries have a blank label\n", s.EmptyLabels)
	}

	if len(s.DepthHistogram) > 0 {
		b.WriteString("\nEntries per level:\n")
		for i, n := range s.DepthHistogram {
			fmt.Fprintf(&b, "  %2d  %4d\n", i+1, n)
		}
	}
	if len(s.Widest) > 0 {
		b.WriteString("\nLargest branches:\n")
		for _, br := range s.Widest {
			fmt.Fprintf(&b, "  %-8s %s (%d entries, %d pages)\n", br.Path, br.Label, br.Descendants, br.Pages)
		}
	}
	return b.String()
}
