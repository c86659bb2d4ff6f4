package main

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/analysis"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/export"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/loader"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/ui"
)

func sampleTable() model.Table {
	return model.Table{Entries: []model.Entry{
		{Label: "Home", Link: "index.html"},
		{Label: "Docs", Link: "docs.html", Children: []model.Entry{
			{Label: "API", Link: "api.html"},
			{Label: "Guide", Link: "guide.html", Children: []model.Entry{
				{Label: "Install", Link: "install.html"},
			}},
		}},
		{Label: "Misc", Children: []model.Entry{
			{Label: "Notes", Link: "notes.html"},
		}},
		{Label: "About", Link: "about.html"},
	}}
}

// writeFixture writes the sample table and an ascii-glyph config into a temp
// dir and returns their paths.
func writeFixture(t *testing.T) (tablePath, configPath string) {
	t.Helper()
	dir := t.TempDir()
	tablePath = filepath.Join(dir, "site.navtree.json")
	data, err := json.Marshal(sampleTable().Entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tablePath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	configPath = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("glyphs: ascii\nlog_level: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return tablePath, configPath
}

func runNV(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.isTerminal = func() bool { return false }
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderText(t *testing.T) {
	tree, _ := export.BuildTree("api.html", sampleTable(), navtree.DefaultOptions())
	got := renderText(tree, ui.ASCIIGlyphs)
	want := "|-- Home\n" +
		"|-v Docs\n" +
		"|   |-- API *\n" +
		"|   `-> Guide\n" +
		"|-> Misc\n" +
		"`-- About\n"
	if got != want {
		t.Errorf("renderText:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTextEmpty(t *testing.T) {
	tree, _ := export.BuildTree("", model.Table{}, navtree.DefaultOptions())
	if got := renderText(tree, ui.ASCIIGlyphs); got != "(empty table)\n" {
		t.Errorf("got %q", got)
	}
}

func TestTreeRows(t *testing.T) {
	tree, _ := export.BuildTree("install.html", sampleTable(), navtree.Options{RelPath: "../"})
	rows := treeRows(tree)
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(rows))
	}
	install := rows[4]
	if install.Label != "Install" || !install.Selected {
		t.Fatalf("row 4 = %+v", install)
	}
	if install.Href != "../install.html" {
		t.Errorf("href = %q", install.Href)
	}
	want := []string{"vertline", "blank", "lastnode"}
	if !reflect.DeepEqual(install.Connectors, want) {
		t.Errorf("connectors = %v, want %v", install.Connectors, want)
	}
	if !rows[1].Expandable || !rows[1].Expanded {
		t.Error("Docs should be open")
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		page string
		want string
	}{
		{"install.html", "Docs > Guide > Install [1/1/0]\n"},
		{"gone.html", "Home [0]\n(gone.html not in table, showing index.html)\n"},
	}
	for _, tt := range tests {
		got := formatPath(export.ResolvePath(tt.page, sampleTable(), navtree.DefaultOptions()))
		if got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.page, got, tt.want)
		}
	}

	empty := formatPath(export.ResolvePath("x.html", model.Table{}, navtree.DefaultOptions()))
	if empty != "x.html: not in table\n" {
		t.Errorf("empty table: %q", empty)
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		flag, out string
		want      string
		wantErr   bool
	}{
		{"", "-", formatPage, false},
		{"", "tree.svg", formatSVG, false},
		{"", "tree.PNG", formatPNG, false},
		{"", "outline.md", formatMarkdown, false},
		{"markdown", "-", formatMarkdown, false},
		{"fragment", "x.svg", formatFragment, false},
		{"pdf", "-", "", true},
	}
	for _, tt := range tests {
		got, err := exportFormat(tt.flag, tt.out)
		if (err != nil) != tt.wantErr {
			t.Errorf("exportFormat(%q, %q) error = %v", tt.flag, tt.out, err)
			continue
		}
		if got != tt.want {
			t.Errorf("exportFormat(%q, %q) = %q, want %q", tt.flag, tt.out, got, tt.want)
		}
	}
}

func TestConvertFormat(t *testing.T) {
	if f, err := convertFormat("", "out.yml"); err != nil || f != loader.FormatYAML {
		t.Errorf("yml = %q, %v", f, err)
	}
	if f, err := convertFormat("js", "-"); err != nil || f != loader.FormatDoxygen {
		t.Errorf("js = %q, %v", f, err)
	}
	if _, err := convertFormat("", "-"); err == nil {
		t.Error("stdout without --format should fail")
	}
}

func TestPrintCommand(t *testing.T) {
	table, cfg := writeFixture(t)
	out, err := runNV(t, "print", table, "--page", "notes.html", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := "|-- Home\n" +
		"|-> Docs\n" +
		"|-v Misc\n" +
		"|   `-- Notes *\n" +
		"`-- About\n"
	if out != want {
		t.Errorf("print:\n%s\nwant:\n%s", out, want)
	}
}

func TestRootPrintsWithoutTerminal(t *testing.T) {
	table, cfg := writeFixture(t)
	out, err := runNV(t, table, "--config", cfg, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []treeRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	// No page configured: the fallback index page is selected
	if len(rows) != 4 || !rows[0].Selected {
		t.Errorf("rows = %+v", rows)
	}
}

func TestPathCommandJSON(t *testing.T) {
	table, cfg := writeFixture(t)
	out, err := runNV(t, "path", "install.html", table, "--config", cfg, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var resp export.PathResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !resp.Found || !reflect.DeepEqual(resp.Path, []int{1, 1, 0}) {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Breadcrumb) != 3 || resp.Breadcrumb[2].Label != "Install" {
		t.Errorf("breadcrumb = %+v", resp.Breadcrumb)
	}
}

func TestStatsCommandJSON(t *testing.T) {
	table, cfg := writeFixture(t)
	out, err := runNV(t, "stats", table, "--config", cfg, "--json", "--top", "1")
	if err != nil {
		t.Fatal(err)
	}
	var shape analysis.Shape
	if err := json.Unmarshal([]byte(out), &shape); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if shape.Entries != 8 || shape.MaxDepth != 3 || len(shape.Widest) != 1 {
		t.Errorf("shape = %+v", shape)
	}
}

func TestExportCommandWritesFile(t *testing.T) {
	table, cfg := writeFixture(t)
	dst := filepath.Join(t.TempDir(), "outline.md")
	if _, err := runNV(t, "export", table, "--page", "api.html", "--out", dst, "--config", cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "**[Docs](docs.html)**") {
		t.Errorf("outline:\n%s", data)
	}
}

func TestExportAllPages(t *testing.T) {
	table, cfg := writeFixture(t)
	dir := t.TempDir()
	out, err := runNV(t, "export", table, "--all-pages", dir, "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Wrote 7 pages") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "install.html")); err != nil {
		t.Error(err)
	}
}

func TestConvertCommandRoundTrip(t *testing.T) {
	table, cfg := writeFixture(t)
	dst := filepath.Join(t.TempDir(), "navtree.js")
	if _, err := runNV(t, "convert", table, dst, "--config", cfg); err != nil {
		t.Fatal(err)
	}
	got, err := loader.Load(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Entries, sampleTable().Entries) {
		t.Errorf("round trip lost entries: %+v", got.Entries)
	}
}

func TestInitCommand(t *testing.T) {
	_, cfg := writeFixture(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "navtree.js"), []byte("var NAVTREE = [];"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runNV(t, "init", dir, "--config", cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".nv", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "table: navtree.js") {
		t.Errorf("config:\n%s", data)
	}
	ignore, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(ignore), ".nv/") {
		t.Errorf(".gitignore = %q", ignore)
	}

	if _, err := runNV(t, "init", dir, "--config", cfg); err == nil {
		t.Error("second init without --force should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	_, cfg := writeFixture(t)
	out, err := runNV(t, "version", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if out != "nv dev\n" {
		t.Errorf("version = %q", out)
	}
}

func TestMissingTable(t *testing.T) {
	_, cfg := writeFixture(t)
	dir := t.TempDir()
	if _, err := runNV(t, "print", filepath.Join(dir, "nope.json"), "--config", cfg); err == nil {
		t.Error("expected an error for a missing table")
	}
}

func TestRunServerReturnsPromptlyWithEventClient(t *testing.T) {
	hub, err := export.NewLiveReloadHub(nil, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := hub.Start(); err != nil {
		t.Fatal(err)
	}
	defer hub.Stop()
	srv := export.NewServer(export.ServerConfig{Navtree: navtree.DefaultOptions()}, sampleTable(), hub, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + export.EventsPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if line, _ := bufio.NewReader(resp.Body).ReadString('\n'); !strings.HasPrefix(line, "event: connected") {
		t.Fatalf("first event %q", line)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServer() error = %v", err)
		}
	case <-time.After(shutdownTimeout / 2):
		t.Fatal("runServer still waiting on the event stream")
	}
}
