package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

func TestPageLinks(t *testing.T) {
	table := sampleTable()
	table.Entries = append(table.Entries,
		model.Entry{Label: "Anchor", Link: "api.html#section"},
		model.Entry{Label: "External", Link: "https://example.com/"},
	)
	got := strings.Join(PageLinks(table), ",")
	want := "index.html,docs.html,api.html,guide.html,install.html,notes.html,about.html"
	if got != want {
		t.Errorf("links = %s, want %s", got, want)
	}
}

func TestExportPages(t *testing.T) {
	table := sampleTable()
	table.Entries[2].Children = append(table.Entries[2].Children,
		model.Entry{Label: "Deep", Link: "sub/deep.html"})
	out := t.TempDir()

	var log bytes.Buffer
	n, err := ExportPages(context.Background(), table, PagesOptions{
		OutDir:   out,
		Navtree:  navtree.DefaultOptions(),
		Workers:  3,
		Reporter: &LineReporter{w: &log},
	})
	if err != nil {
		t.Fatalf("ExportPages: %v", err)
	}
	if n != 8 {
		t.Errorf("wrote %d pages, want 8", n)
	}

	for _, link := range PageLinks(table) {
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(link)))
		if err != nil {
			t.Fatalf("page %s: %v", link, err)
		}
		if strings.Count(string(data), `id="selected"`) != 1 {
			t.Errorf("%s should select exactly one item", link)
		}
	}

	deep, _ := os.ReadFile(filepath.Join(out, "sub", "deep.html"))
	if !strings.Contains(string(deep), `href="../index.html"`) {
		t.Error("pages in subdirectories should link back to the root")
	}
	if !strings.Contains(log.String(), "[8/8]") || !strings.Contains(log.String(), "Export complete") {
		t.Errorf("progress log:\n%s", log.String())
	}
}

func TestExportPagesRejectsEscapingLinks(t *testing.T) {
	table := model.Table{Entries: []model.Entry{{Label: "Evil", Link: "../../etc/passwd"}}}
	_, err := ExportPages(context.Background(), table, PagesOptions{OutDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected an error for a link outside the output directory")
	}
}

func TestExportPagesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExportPages(ctx, sampleTable(), PagesOptions{OutDir: t.TempDir(), Workers: 1})
	if err == nil {
		t.Error("a cancelled context should stop the export")
	}
}

func TestOptionsForPage(t *testing.T) {
	tests := []struct {
		page, rel, want string
	}{
		{"index.html", "", ""},
		{"sub/deep.html", "", "../"},
		{"a/b/c.html", "", "../../"},
		{"a.html?x=1/2#y/z", "", ""},
		{"sub/deep.html", "/docs/", "/docs/"},
	}
	for _, tt := range tests {
		opts := navtree.DefaultOptions()
		opts.RelPath = tt.rel
		if got := optionsForPage(opts, tt.page).RelPath; got != tt.want {
			t.Errorf("optionsForPage(%q, %q).RelPath = %q, want %q", tt.page, tt.rel, got, tt.want)
		}
	}
}
