package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/export"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/loader"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/ui"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	port      int
	dir       string
	allowAll  bool
	noReload  bool
	summaries bool
	open      bool
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve [table]",
		Short: "Serve a docs directory with the tree rendered per page",
		Long: `Serve the docs directory over HTTP. Every HTML page gets a small loader that
fetches the tree for that page from /__nav__/tree, so the page's entry is
selected and its ancestors open. Edits to the table or the docs reload
connected browsers unless --no-reload is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, path, err := a.loadTable(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				f.port = a.cfg.Serve.Port
			}
			if !cmd.Flags().Changed("open") {
				f.open = a.cfg.Serve.Open
			}
			if f.dir == "" {
				f.dir = a.docsDir(path)
			}

			var hub *export.LiveReloadHub
			if !f.noReload {
				if hub, err = export.NewLiveReloadHub(a.logger, path, f.dir); err != nil {
					return err
				}
			}
			srv := export.NewServer(export.ServerConfig{
				Port:      f.port,
				DocsDir:   f.dir,
				AllowAll:  f.allowAll,
				Navtree:   a.navOptions(),
				Summaries: f.summaries,
			}, table, hub, a.logger)

			if hub != nil {
				hub.OnChange(func(changed string) {
					reloaded, err := loader.Load(path)
					if err != nil {
						a.logger.Warn("table reload failed", "path", path, "error", err)
						return
					}
					srv.SetTable(reloaded)
					a.logger.Debug("table reloaded", "trigger", changed, "entries", len(reloaded.Entries))
				})
				if err := hub.Start(); err != nil {
					return err
				}
				defer hub.Stop()
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
			}
			url := serveURL(ln.Addr())
			fmt.Fprintf(a.out, "Serving %s at %s\n", f.dir, url)
			if f.open {
				go a.openBrowser(url)
			}
			return runServer(cmd.Context(), srv, ln)
		},
	}
	cmd.Flags().IntVar(&f.port, "port", 8080, "listen port (default from config)")
	cmd.Flags().StringVar(&f.dir, "dir", "", "docs directory (default: the table's directory)")
	cmd.Flags().BoolVar(&f.allowAll, "allow-all", false, "allow cross-origin requests from any origin")
	cmd.Flags().BoolVar(&f.noReload, "no-reload", false, "disable live reload")
	cmd.Flags().BoolVar(&f.summaries, "summaries", false, "render entry summaries under labels")
	cmd.Flags().BoolVar(&f.open, "open", false, "open the site in a browser")
	return cmd
}

// runServer serves on ln until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *export.Server, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ln)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func serveURL(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf("http://localhost:%d/", tcp.Port)
	}
	return "http://" + addr.String() + "/"
}

func (a *app) openBrowser(url string) {
	msg, _ := ui.NewPageOpener("").Open(url)().(ui.PageOpenedMsg)
	if msg.Error != nil {
		a.logger.Warn("could not open browser", "url", url, "error", msg.Error)
	}
}
