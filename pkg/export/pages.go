package export

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// PagesOptions controls ExportPages.
type PagesOptions struct {
	OutDir   string
	Navtree  navtree.Options
	HTML     HTMLOptions
	Workers  int      // defaults to 4
	Reporter Reporter // may be nil
}

// PageLinks returns every distinct local page the table links to, in
// document order. Fragments are stripped and external URLs skipped.
func PageLinks(table model.Table) []string {
	seen := make(map[string]bool)
	var links []string
	table.Walk(func(e *model.Entry, _ []int) bool {
		link, _, _ := strings.Cut(e.Link, "#")
		if link == "" || strings.Contains(link, "://") || seen[link] {
			return true
		}
		seen[link] = true
		links = append(links, link)
		return true
	})
	return links
}

// ExportPages writes one standalone tree page per linked page, each opened on
// its own entry, into opts.OutDir using the page's own relative path. It
// returns the number of files written.
func ExportPages(ctx context.Context, table model.Table, opts PagesOptions) (int, error) {
	links := PageLinks(table)
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	root, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return 0, fmt.Errorf("resolving output dir: %w", err)
	}

	reporter.Start(len(links))
	defer reporter.Finish()

	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, link := range links {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := writePage(root, link, table, opts); err != nil {
				return fmt.Errorf("page %s: %w", link, err)
			}
			reporter.Update(int(done.Add(1)), link)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(done.Load()), err
	}
	return len(links), nil
}

func writePage(root, link string, table model.Table, opts PagesOptions) error {
	dest := filepath.Join(root, filepath.FromSlash(link))
	if rel, err := filepath.Rel(root, dest); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("link escapes output directory")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tree, _ := BuildTree(link, table, optionsForPage(opts.Navtree, link))

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WritePage(w, tree, opts.HTML); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// optionsForPage returns opts with RelPath set so links resolve from page's
// directory: one "../" per subdirectory level. An explicit RelPath wins.
func optionsForPage(opts navtree.Options, page string) navtree.Options {
	if opts.RelPath != "" {
		return opts
	}
	if i := strings.IndexAny(page, "?#"); i >= 0 {
		page = page[:i]
	}
	if depth := strings.Count(page, "/"); depth > 0 {
		opts.RelPath = strings.Repeat("../", depth)
	}
	return opts
}
