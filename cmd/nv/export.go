package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/export"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

// Export formats.
const (
	formatPage     = "html"
	formatFragment = "fragment"
	formatSVG      = "svg"
	formatPNG      = "png"
	formatMarkdown = "md"
)

type exportFlags struct {
	page      string
	format    string
	out       string
	title     string
	summaries bool
	complete  bool
	depth     int
	allPages  string
	workers   int
}

func newExportCmd(a *app) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export [table]",
		Short: "Render the tree for a page as HTML, SVG, PNG or Markdown",
		Long: `Render the navigation tree as it appears on --page.

Formats:
  html      standalone HTML page with working toggles
  fragment  the #nav-tree-contents block only
  svg, png  a snapshot of the visible rows
  md        a nested Markdown outline with the current path in bold

The format defaults to the --out extension, or html. --all-pages DIR writes
one standalone page per linked document instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := a.loadTable(args)
			if err != nil {
				return err
			}
			if f.allPages != "" {
				return a.exportAllPages(cmd, table, f)
			}
			return a.exportOne(table, f)
		},
	}
	cmd.Flags().StringVarP(&f.page, "page", "p", "", "page to select (default from config)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "html, fragment, svg, png or md")
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&f.title, "title", "", "page or outline title")
	cmd.Flags().BoolVar(&f.summaries, "summaries", false, "include entry summaries")
	cmd.Flags().BoolVar(&f.complete, "complete", false, "include collapsed branches in HTML output")
	cmd.Flags().IntVar(&f.depth, "depth", 0, "outline depth limit, 0 for none")
	cmd.Flags().StringVar(&f.allPages, "all-pages", "", "write one page per link into this directory")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "parallel writers for --all-pages")
	return cmd
}

// exportFormat picks the format from the flag, then the output extension.
func exportFormat(flag, out string) (string, error) {
	if flag != "" {
		switch f := strings.ToLower(flag); f {
		case formatPage, formatFragment, formatSVG, formatPNG, formatMarkdown:
			return f, nil
		case "markdown":
			return formatMarkdown, nil
		}
		return "", fmt.Errorf("unknown export format %q", flag)
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".svg":
		return formatSVG, nil
	case ".png":
		return formatPNG, nil
	case ".md", ".markdown":
		return formatMarkdown, nil
	}
	return formatPage, nil
}

func (a *app) exportOne(table model.Table, f exportFlags) error {
	format, err := exportFormat(f.format, f.out)
	if err != nil {
		return err
	}
	page := a.pageOr(f.page)

	return a.withOutput(f.out, func(w io.Writer) error {
		if format == formatMarkdown {
			return export.WriteOutline(w, table, export.OutlineOptions{
				Title:     f.title,
				RelPath:   a.cfg.RelPath,
				Current:   page,
				Summaries: f.summaries,
				MaxDepth:  f.depth,
			})
		}

		tree, _ := export.BuildTree(page, table, a.navOptions())
		opts := export.HTMLOptions{Title: f.title, Summaries: f.summaries, Complete: f.complete}
		switch format {
		case formatFragment:
			return export.WriteFragment(w, tree, opts)
		case formatSVG:
			return export.WriteSVG(w, tree)
		case formatPNG:
			return export.WritePNG(w, tree)
		}
		return export.WritePage(w, tree, opts)
	})
}

// withOutput runs write against stdout or a freshly created file.
func (a *app) withOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(a.out)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	a.logger.Info("exported", "path", path)
	return nil
}

func (a *app) exportAllPages(cmd *cobra.Command, table model.Table, f exportFlags) error {
	n, err := export.ExportPages(cmd.Context(), table, export.PagesOptions{
		OutDir:  f.allPages,
		Navtree: a.navOptions(),
		HTML: export.HTMLOptions{
			Title:     f.title,
			Summaries: f.summaries,
			Complete:  true,
		},
		Workers:  f.workers,
		Reporter: export.NewReporter(a.errOut),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Wrote %d pages to %s\n", n, f.allPages)
	return err
}
