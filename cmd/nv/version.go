package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOut {
				return a.writeJSON(map[string]string{"name": "nv", "version": Version})
			}
			_, err := fmt.Fprintf(a.out, "nv %s\n", Version)
			return err
		},
	}
}
