package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter .nv/config.yaml",
		Long: `Write the default configuration to <dir>/.nv/config.yaml and add .nv/ to
the directory's .gitignore. The first table found under <dir> becomes the
configured table.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			path := config.DefaultPath(dir)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			scan := *cfg
			scan.Discovery.ScanPaths = []string{dir}
			if refs := config.DiscoverTables(scan); len(refs) > 0 {
				if rel, err := filepath.Rel(dir, refs[0].Path); err == nil {
					cfg.Table = rel
				}
			}

			if err := cfg.Save(path); err != nil {
				return err
			}
			if err := config.EnsureStateDirIgnored(dir); err != nil {
				a.logger.Warn("could not update .gitignore", "dir", dir, "error", err)
			}
			_, err = fmt.Fprintf(a.out, "Wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
