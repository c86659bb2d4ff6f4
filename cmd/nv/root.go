package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/config"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/export"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/loader"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/ui"
)

var errNoTable = errors.New("no navigation table found: pass a path or set table in .nv/config.yaml")

// app carries the global flags and the state every command shares.
type app struct {
	cfgFile string
	verbose bool
	jsonOut bool

	out    io.Writer
	errOut io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error

	// isTerminal reports whether out is a terminal; replaced in tests.
	isTerminal func() bool
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, isTerminal: stdoutIsTerminal}
}

func newRootCmd(a *app) *cobra.Command {
	var page string
	root := &cobra.Command{
		Use:   "nv [table]",
		Short: "Browse documentation navigation trees",
		Long: `nv loads a documentation navigation table (a Doxygen navtree.js, or a JSON
or YAML entry list) and shows the tree as it looks on a given page: the page's
entry selected, its ancestors expanded, everything else collapsed.

Run without a subcommand in a terminal to browse interactively. When stdout is
not a terminal the tree is printed instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Root() == cmd && a.isTerminal() && !a.jsonOut)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			table, path, err := a.loadTable(args)
			if err != nil {
				return err
			}
			page = a.pageOr(page)
			if a.isTerminal() && !a.jsonOut {
				return a.runTUI(table, path, page)
			}
			return a.printTree(table, page, false)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default .nv/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print machine-readable JSON")
	root.Flags().StringVarP(&page, "page", "p", "", "page to select (default from config)")

	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.AddCommand(
		newPrintCmd(a),
		newPathCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newStatsCmd(a),
		newConvertCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)

	return root
}

// setup loads .env, the config file and NV_* overrides, then builds the
// logger. Interactive sessions log to a file so the UI keeps the screen.
func (a *app) setup(interactive bool) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	path := a.cfgFile
	if path == "" {
		dir, ok := config.DetectProjectRoot()
		if !ok {
			var err error
			if dir, err = os.Getwd(); err != nil {
				return err
			}
		}
		path = config.DefaultPath(dir)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	a.cfg = cfg

	logger, closeLog, err := config.NewLogger(cfg, interactive, a.errOut, a.verbose)
	if err != nil {
		// The UI still runs without a log file
		fmt.Fprintf(a.errOut, "Warning: %v\n", err)
	}
	a.logger = logger
	a.closeLog = closeLog
	slog.SetDefault(logger)
	logger.Debug("config loaded", "path", path, "table", cfg.Table)
	return nil
}

// tablePath picks the table named on the command line, then the configured
// one, then the first discovered under the scan paths.
func (a *app) tablePath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if refs := config.DiscoverTables(*a.cfg); len(refs) > 0 {
		return refs[0].Path, nil
	}
	return "", errNoTable
}

func (a *app) loadTable(args []string) (model.Table, string, error) {
	path, err := a.tablePath(args)
	if err != nil {
		return model.Table{}, "", err
	}
	table, err := loader.Load(path)
	if err != nil {
		return model.Table{}, path, err
	}
	a.logger.Debug("table loaded", "path", path, "entries", len(table.Entries))
	return table, path, nil
}

func (a *app) pageOr(page string) string {
	if page != "" {
		return page
	}
	return a.cfg.Page
}

func (a *app) navOptions() navtree.Options {
	opts := navtree.DefaultOptions()
	if a.cfg.FallbackPage != "" {
		opts.FallbackPage = a.cfg.FallbackPage
	}
	opts.RelPath = a.cfg.RelPath
	opts.RecenterAfterExpand = a.cfg.RecenterAfterExpand
	return opts
}

// docsDir is where page links resolve: the configured directory, or the one
// holding the table.
func (a *app) docsDir(tablePath string) string {
	if a.cfg.DocsDir != "" {
		return a.cfg.DocsDir
	}
	if tablePath == "" {
		return "."
	}
	return filepath.Dir(tablePath)
}

func (a *app) runTUI(table model.Table, path, page string) error {
	var p *tea.Program
	opts := ui.Options{
		TablePath: path,
		Page:      page,
		Navtree:   a.navOptions(),
		Glyphs:    ui.GlyphsFor(string(a.cfg.Glyphs)),
		Animation: time.Duration(a.cfg.AnimationMS) * time.Millisecond,
		DocsDir:   a.docsDir(path),
		Tables:    config.DiscoverTables(*a.cfg),
		Watch: func(path string) (*ui.TableWatcher, error) {
			return ui.NewTableWatcher(ui.WatcherConfig{TablePath: path, Program: p})
		},
	}
	p = tea.NewProgram(ui.NewModel(table, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running navigator: %w", err)
	}
	return nil
}

// printTree writes the visible rows, or every row when all is set.
func (a *app) printTree(table model.Table, page string, all bool) error {
	tree, _ := export.BuildTree(page, table, a.navOptions())
	if all {
		tree.ExpandAll()
	}
	if a.jsonOut {
		return a.writeJSON(treeRows(tree))
	}
	_, err := io.WriteString(a.out, renderText(tree, ui.GlyphsFor(string(a.cfg.Glyphs))))
	return err
}

func (a *app) writeJSON(v any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
