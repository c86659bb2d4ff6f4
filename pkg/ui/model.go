package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/config"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/loader"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

const (
	// SplitViewThreshold is the width from which the detail pane sits beside
	// the tree instead of replacing it.
	SplitViewThreshold = 100
)

type focus int

const (
	focusTree focus = iota
	focusDetail
)

// watcherStartedMsg delivers the table watcher started by a command.
type watcherStartedMsg struct {
	Watcher *TableWatcher
	Err     error
}

// WatchFunc creates (but does not start) a watcher for a table file.
type WatchFunc func(path string) (*TableWatcher, error)

// Options configures a Model.
type Options struct {
	TablePath string // File the table came from; used for reloads
	Page      string // Page shown first
	Navtree   navtree.Options
	Glyphs    GlyphSet
	Animation time.Duration // Expand slide duration; 0 disables it
	DocsDir   string        // Root for resolving links opened in the browser
	Tables    []config.TableRef
	Renderer  *lipgloss.Renderer
	Watch     WatchFunc // Nil disables live reload
}

// Model is the navigator: the tree pane, a detail pane and the overlays
// around them.
type Model struct {
	table     model.Table
	tablePath string
	navOpts   navtree.Options

	theme   Theme
	keys    KeyMap
	help    help.Model
	host    *TermHost
	tree    TreeModel
	history PageHistory
	opener  *PageOpener

	markdown *MarkdownRenderer
	viewport viewport.Model

	tables  []config.TableRef
	picker  TablePickerModel
	jump    JumpModel
	watch   WatchFunc
	watcher *TableWatcher

	// State
	focused     focus
	isSplitView bool
	showDetail  bool
	showHelp    bool
	showPicker  bool
	showJump    bool
	ready       bool
	width       int
	height      int

	statusMsg     string
	statusIsError bool
}

// NewModel creates the navigator over table showing opts.Page.
func NewModel(table model.Table, opts Options) Model {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	theme := DefaultTheme(r)
	host := NewTermHost(opts.Animation)

	m := Model{
		table:     table,
		tablePath: opts.TablePath,
		navOpts:   opts.Navtree,
		theme:     theme,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		host:      host,
		tree:      NewTreeModel(theme, opts.Glyphs, host),
		opener:    NewPageOpener(opts.DocsDir),
		markdown:  NewMarkdownRendererWithTheme(80, theme),
		viewport:  viewport.New(80, 20),
		tables:    opts.Tables,
		watch:     opts.Watch,
	}
	m.showPage(opts.Page)
	m.history = NewPageHistory(opts.Page)
	return m
}

// Init starts the table watcher when live reload is enabled.
func (m Model) Init() tea.Cmd {
	if m.watch == nil || m.tablePath == "" {
		return nil
	}
	return startWatcherCmd(m.watch, m.tablePath)
}

func startWatcherCmd(watch WatchFunc, path string) tea.Cmd {
	return func() tea.Msg {
		w, err := watch(path)
		if err == nil {
			err = w.Start()
		}
		return watcherStartedMsg{Watcher: w, Err: err}
	}
}

// showPage rebuilds the tree for page, as a fresh page load would.
func (m *Model) showPage(page string) {
	m.host.reset()
	tree := navtree.Initialize(page, m.table, m.host, m.navOpts)
	tree.Loaded()
	m.tree.SetTree(tree)
	m.refreshDetail()
}

// navigate loads page and records it in the history.
func (m *Model) navigate(page string) {
	m.showPage(page)
	m.history.Visit(page)
	m.setStatus("→ "+page, false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		first := !m.ready
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		// Rows sliding in at the old size would reflow mid-animation
		if m.host.animating() {
			m.host.settle()
			m.tree.Sync()
		}
		m.layout()
		if first {
			m.tree.CenterOnCurrent()
		}
		return m, nil

	case slideTickMsg:
		cmd := m.host.handleTick(msg)
		m.tree.Sync()
		return m, cmd

	case watcherStartedMsg:
		if msg.Err != nil {
			slog.Warn("live reload disabled", "path", m.tablePath, "err", msg.Err)
			m.setStatus(fmt.Sprintf("Live reload disabled: %v", msg.Err), true)
			return m, nil
		}
		if m.watcher != nil {
			m.watcher.Stop()
		}
		m.watcher = msg.Watcher
		return m, nil

	case TableReloadedMsg:
		m.table = msg.Table
		m.showPage(m.history.Current())
		m.setStatus(fmt.Sprintf("Reloaded %d entries", m.table.Count()), false)
		return m, m.host.Cmd()

	case TableErrorMsg:
		status := fmt.Sprintf("Reload failed: %v", msg.Err)
		if m.watcher != nil {
			if werr := m.watcher.LastError(); werr != nil && werr.Retries > 1 {
				status = fmt.Sprintf("Reload failed %d times: %v", werr.Retries, werr.Cause)
			}
		}
		m.setStatus(status, true)
		return m, nil

	case PageOpenedMsg:
		if msg.Error != nil {
			m.setStatus(fmt.Sprintf("Open failed: %v", msg.Error), true)
		} else {
			m.setStatus("Opened "+msg.Target, false)
		}
		return m, nil

	case SwitchTableMsg:
		m.showPicker = false
		return m, m.switchTable(msg.Ref)

	case closePickerMsg:
		m.showPicker = false
		return m, nil

	case JumpMsg:
		m.showJump = false
		if msg.Page != "" {
			m.navigate(msg.Page)
		}
		return m, m.host.Cmd()
	}

	if m.showJump {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.showJump = false
			return m, nil
		}
		var cmd tea.Cmd
		m.jump, cmd = m.jump.Update(msg)
		if m.jump.Done() {
			m.showJump = false
		}
		return m, cmd
	}
	if m.showPicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.showHelp {
		switch keyMsg.String() {
		case "esc", "?", "q":
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		if keyMsg.String() == "q" && m.showDetail && !m.isSplitView {
			m.showDetail = false
			m.focused = focusTree
			return m, nil
		}
		if m.watcher != nil {
			m.watcher.Stop()
		}
		return m, tea.Quit
	case keyMsg.String() == "esc":
		if m.showDetail {
			m.showDetail = false
			m.focused = focusTree
		}
		m.statusMsg = ""
		return m, nil
	case key.Matches(keyMsg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case keyMsg.String() == "tab" && m.isSplitView && m.showDetail:
		if m.focused == focusTree {
			m.focused = focusDetail
		} else {
			m.focused = focusTree
		}
		return m, nil
	}

	if m.focused == focusDetail || (m.showDetail && !m.isSplitView) {
		if key.Matches(keyMsg, m.keys.Detail) {
			m.showDetail = false
			m.focused = focusTree
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	cmds = append(cmds, m.handleTreeKey(keyMsg))
	cmds = append(cmds, m.host.Cmd())
	m.refreshDetail()
	return m, tea.Batch(cmds...)
}

// handleTreeKey applies a key to the tree pane.
func (m *Model) handleTreeKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	switch {
	case key.Matches(msg, k.Up):
		m.tree.MoveUp()
	case key.Matches(msg, k.Down):
		m.tree.MoveDown()
	case key.Matches(msg, k.Left):
		m.tree.CollapseOrJumpToParent()
	case key.Matches(msg, k.Right):
		m.tree.ExpandOrMoveToChild()
	case key.Matches(msg, k.Top):
		m.tree.JumpToTop()
	case key.Matches(msg, k.Bottom):
		m.tree.JumpToBottom()
	case key.Matches(msg, k.PageDown):
		m.tree.PageDown()
	case key.Matches(msg, k.PageUp):
		m.tree.PageUp()
	case key.Matches(msg, k.Toggle):
		m.tree.ToggleExpand()
	case key.Matches(msg, k.Activate):
		res := m.tree.Activate()
		if res.Action == navtree.ActionNavigate {
			m.navigate(res.Node.Link())
		}
	case key.Matches(msg, k.ExpandAll):
		m.tree.ExpandAll()
	case key.Matches(msg, k.CollapseAll):
		m.tree.CollapseAll()
	case key.Matches(msg, k.Center):
		m.tree.CenterOnCurrent()
	case key.Matches(msg, k.Back):
		if page, ok := m.history.Back(); ok {
			m.showPage(page)
			m.setStatus("← "+page, false)
		} else {
			m.setStatus("No earlier page", false)
		}
	case key.Matches(msg, k.Forward):
		if page, ok := m.history.Forward(); ok {
			m.showPage(page)
			m.setStatus("→ "+page, false)
		} else {
			m.setStatus("No later page", false)
		}
	case key.Matches(msg, k.Jump):
		m.jump = NewJumpModel(m.table, m.width)
		m.showJump = true
		return m.jump.Init()
	case key.Matches(msg, k.Detail):
		m.showDetail = !m.showDetail
		if m.showDetail && !m.isSplitView {
			m.focused = focusDetail
		}
	case key.Matches(msg, k.Open):
		if n := m.tree.CursorNode(); n != nil && n.Link() != "" {
			return m.opener.Open(m.tree.Tree().Href(n))
		}
		m.setStatus("Nothing to open: entry has no page", true)
	case key.Matches(msg, k.Yank):
		m.yank()
	case key.Matches(msg, k.Tables):
		m.picker = NewTablePicker(m.tables, m.tablePath, m.theme)
		m.picker.SetSize(m.width, m.height)
		m.showPicker = true
	case key.Matches(msg, k.Reload):
		return m.reload()
	}
	return nil
}

// yank copies the cursor row's href to the system clipboard.
func (m *Model) yank() {
	n := m.tree.CursorNode()
	if n == nil || n.Link() == "" {
		m.setStatus("Nothing to copy: entry has no page", true)
		return
	}
	href := m.tree.Tree().Href(n)
	if err := clipboard.WriteAll(href); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus("Copied "+href, false)
}

// reload re-reads the table file, through the watcher when there is one.
func (m *Model) reload() tea.Cmd {
	if m.tablePath == "" {
		m.setStatus("Table was not loaded from a file", true)
		return nil
	}
	if m.watcher != nil {
		m.watcher.ResetHash()
		m.watcher.TriggerRefresh()
		m.setStatus("Reloading…", false)
		return nil
	}
	path := m.tablePath
	return func() tea.Msg {
		t, err := loader.Load(path)
		if err != nil {
			return TableErrorMsg{Err: err, Recoverable: true}
		}
		return TableReloadedMsg{Table: t}
	}
}

// switchTable loads the table at ref and shows its index page.
func (m *Model) switchTable(ref config.TableRef) tea.Cmd {
	t, err := loader.Load(ref.Path)
	if err != nil {
		m.setStatus(fmt.Sprintf("Cannot load %s: %v", ref.Name, err), true)
		return nil
	}
	m.table = t
	m.tablePath = ref.Path
	m.showPage(m.navOpts.FallbackPage)
	m.history = NewPageHistory(m.navOpts.FallbackPage)
	m.setStatus(fmt.Sprintf("Loaded %s (%d entries)", ref.Name, t.Count()), false)

	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
	if m.watch != nil {
		return tea.Batch(m.host.Cmd(), startWatcherCmd(m.watch, ref.Path))
	}
	return m.host.Cmd()
}

// layout sizes the panes for the current window.
func (m *Model) layout() {
	m.isSplitView = m.width > SplitViewThreshold
	bodyHeight := m.height - 2 // breadcrumb + status bar
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	treeWidth := m.width
	detailWidth := m.width
	if m.isSplitView {
		treeWidth = int(float64(m.width) * 0.45)
		detailWidth = m.width - treeWidth - 3
	}
	m.tree.SetSize(treeWidth, bodyHeight)
	m.viewport.Width = detailWidth
	m.viewport.Height = bodyHeight
	m.markdown.SetWidth(detailWidth - 2)
	m.picker.SetSize(m.width, m.height)
	m.help.Width = m.width
	m.refreshDetail()
}

// refreshDetail re-renders the detail pane for the cursor row.
func (m *Model) refreshDetail() {
	md := DetailMarkdown(m.tree.Tree(), m.tree.CursorNode())
	out, err := m.markdown.Render(md)
	if err != nil {
		out = md
	}
	m.viewport.SetContent(out)
}

// View renders the navigator.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch {
	case m.showJump:
		body = m.center(m.jump.View())
	case m.showPicker:
		body = m.center(m.picker.View())
	case m.showHelp:
		body = m.center(RenderHelp(m.keys, m.help, m.theme, m.width))
	case m.isSplitView && m.showDetail:
		r := m.theme.Renderer
		sep := r.NewStyle().Foreground(m.theme.Border).Render(strings.Repeat("│\n", max(m.viewport.Height-1, 0)) + "│")
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.tree.View(), " ", sep, " ", m.viewport.View())
	case m.showDetail:
		body = m.viewport.View()
	default:
		body = m.tree.View()
	}

	bodyStyle := m.theme.Renderer.NewStyle().Height(max(m.height-2, 1)).MaxHeight(max(m.height-2, 1))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderBreadcrumb(),
		bodyStyle.Render(body),
		m.renderFooter(),
	)
}

func (m Model) center(s string) string {
	return lipgloss.Place(m.width, max(m.height-2, 1), lipgloss.Center, lipgloss.Center, s)
}

// renderBreadcrumb renders the path to the current page.
func (m Model) renderBreadcrumb() string {
	r := m.theme.Renderer
	crumbStyle := r.NewStyle().Foreground(m.theme.Muted)
	currentStyle := r.NewStyle().Foreground(m.theme.Primary).Bold(true)

	tree := m.tree.Tree()
	trail := tree.Breadcrumb()
	if len(trail) == 0 {
		return crumbStyle.Render(" (no current page)")
	}
	parts := make([]string, len(trail))
	for i, n := range trail {
		if i == len(trail)-1 {
			parts[i] = currentStyle.Render(n.Label())
		} else {
			parts[i] = crumbStyle.Render(n.Label())
		}
	}
	line := " " + strings.Join(parts, crumbStyle.Render(" › "))
	if cur := m.history.Current(); cur != "" && tree.Page() != cur {
		line += crumbStyle.Render(fmt.Sprintf("  (%s not found, showing %s)", cur, tree.Page()))
	}
	return r.NewStyle().MaxWidth(max(m.width, 20)).Render(line)
}

// renderFooter renders the status bar: message or key hints, then counts.
func (m Model) renderFooter() string {
	r := m.theme.Renderer

	left := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.statusMsg != "" {
		style := r.NewStyle().Foreground(m.theme.Highlight)
		if m.statusIsError {
			style = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF5555"}).Bold(true)
		}
		left = style.Render(m.statusMsg)
	}

	tree := m.tree.Tree()
	countStyle := r.NewStyle().Foreground(m.theme.Secondary)
	right := countStyle.Render(fmt.Sprintf("%d/%d rows  %d entries", m.tree.Cursor()+1, m.tree.NodeCount(), m.table.Count()))
	if tree.Page() != "" {
		right = countStyle.Render(tree.Page()) + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + left + strings.Repeat(" ", gap) + right + " "
}

// Tree returns the tree pane. Used by tests.
func (m Model) Tree() *TreeModel {
	return &m.tree
}

// History returns the page history. Used by tests.
func (m Model) History() PageHistory {
	return m.history
}

// Table returns the loaded table.
func (m Model) Table() model.Table {
	return m.table
}

// Host returns the animation host. Used by tests.
func (m Model) Host() *TermHost {
	return m.host
}

// Status returns the status bar message and whether it is an error.
func (m Model) Status() (string, bool) {
	return m.statusMsg, m.statusIsError
}

// ShowingDetail reports whether the detail pane is open.
func (m Model) ShowingDetail() bool {
	return m.showDetail
}

// ShowingHelp reports whether the help overlay is open.
func (m Model) ShowingHelp() bool {
	return m.showHelp
}

// ShowingJump reports whether the jump prompt is open.
func (m Model) ShowingJump() bool {
	return m.showJump
}

// ShowingPicker reports whether the table picker is open.
func (m Model) ShowingPicker() bool {
	return m.showPicker
}
