package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/loader"
)

func newConvertCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "convert <table> <out>",
		Short: "Rewrite a table in another format",
		Long: `Read a table in any supported format and write it as doxygen (navtree.js),
json or yaml. The output format defaults to the extension of <out>; use - to
write to stdout together with --format.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := a.loadTable(args[:1])
			if err != nil {
				return err
			}
			target, err := convertFormat(format, args[1])
			if err != nil {
				return err
			}
			return a.withOutput(args[1], func(w io.Writer) error {
				return loader.Write(w, table.Entries, target)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "doxygen, json or yaml")
	return cmd
}

func convertFormat(flag, out string) (loader.Format, error) {
	if flag != "" {
		return loader.ParseFormat(flag)
	}
	if out == "-" {
		return "", fmt.Errorf("--format is required when writing to stdout")
	}
	return loader.DetectFormat(out, nil)
}
