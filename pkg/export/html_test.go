package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

func sampleTable() model.Table {
	return model.Table{Entries: []model.Entry{
		{Label: "Home", Link: "index.html"},
		{Label: "Docs", Link: "docs.html", Children: []model.Entry{
			{Label: "API", Link: "api.html", Summary: "The **public** interface."},
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

func renderFragment(t *testing.T, page string, opts HTMLOptions, navOpts navtree.Options) string {
	t.Helper()
	tree, _ := BuildTree(page, sampleTable(), navOpts)
	var buf bytes.Buffer
	if err := WriteFragment(&buf, tree, opts); err != nil {
		t.Fatalf("WriteFragment: %v", err)
	}
	return buf.String()
}

func TestFragmentMarksExactlyOneSelectedItem(t *testing.T) {
	out := renderFragment(t, "api.html", HTMLOptions{}, navtree.DefaultOptions())

	if n := strings.Count(out, `id="selected"`); n != 1 {
		t.Fatalf("found %d selected items, want 1:\n%s", n, out)
	}
	idx := strings.Index(out, `id="selected"`)
	rest := out[idx:]
	if !strings.Contains(rest[:strings.Index(rest, "</div>")], ">API</a>") {
		t.Errorf("selected item is not API:\n%s", rest)
	}
	if !strings.HasPrefix(out, `<div id="nav-tree-contents"><ul>`) {
		t.Errorf("unexpected fragment start: %.60s", out)
	}
}

func TestFragmentUnknownPageFallsBackToIndex(t *testing.T) {
	out := renderFragment(t, "nowhere.html", HTMLOptions{}, navtree.DefaultOptions())
	if n := strings.Count(out, `id="selected"`); n != 1 {
		t.Fatalf("selected items = %d, want the fallback page", n)
	}
	if !strings.Contains(out, `id="selected" data-node="1"`) {
		t.Errorf("Home should be selected:\n%s", out)
	}
}

func TestFragmentWithoutMatchIsFlat(t *testing.T) {
	opts := navtree.Options{FallbackPage: "missing-too.html"}
	out := renderFragment(t, "nowhere.html", HTMLOptions{}, opts)

	if strings.Contains(out, `id="selected"`) {
		t.Error("nothing should be selected")
	}
	if strings.Contains(out, "children_ul") {
		t.Errorf("no subtree should be materialized:\n%s", out)
	}
	for _, label := range []string{"Home", "Docs", "Misc", "About"} {
		if !strings.Contains(out, ">"+label+"</a>") {
			t.Errorf("top-level %s missing", label)
		}
	}
}

func TestFragmentHiddenListsAndIcons(t *testing.T) {
	out := renderFragment(t, "api.html", HTMLOptions{Complete: true}, navtree.DefaultOptions())

	// Docs is on the path and open; Guide and Misc were only materialized
	if got := strings.Count(out, `<ul class="children_ul" style="display:none">`); got != 2 {
		t.Errorf("hidden lists = %d, want 2:\n%s", got, out)
	}
	if got := strings.Count(out, `<ul class="children_ul">`); got != 1 {
		t.Errorf("open lists = %d, want 1", got)
	}
	for _, asset := range []string{"ftv2mnode.png", "ftv2pnode.png", "ftv2plastnode.png", "ftv2lastnode.png", "ftv2vertline.png", "ftv2blank.png"} {
		if !strings.Contains(out, asset) {
			t.Errorf("icon %s missing", asset)
		}
	}
	if !strings.Contains(out, `<a class="nolink" href="javascript:void(0)">Misc</a>`) {
		t.Error("unlinked parent should route its label to the toggle")
	}
}

func TestFragmentRelPathPrefixesLinksAndIcons(t *testing.T) {
	opts := navtree.DefaultOptions()
	opts.RelPath = "../"
	out := renderFragment(t, "api.html", HTMLOptions{}, opts)

	if !strings.Contains(out, `href="../api.html"`) {
		t.Error("links should carry the relative prefix")
	}
	if !strings.Contains(out, `src="../ftv2node.png"`) {
		t.Error("icons should carry the relative prefix")
	}
}

func TestFragmentSummariesAndEscaping(t *testing.T) {
	table := sampleTable()
	table.Entries[3].Label = "A < B & C"
	tree, _ := BuildTree("api.html", table, navtree.DefaultOptions())

	var buf bytes.Buffer
	if err := WriteFragment(&buf, tree, HTMLOptions{Summaries: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "<strong>public</strong>") {
		t.Errorf("summary markdown not rendered:\n%s", out)
	}
	if !strings.Contains(out, "A &lt; B &amp; C") {
		t.Errorf("label not escaped:\n%s", out)
	}
}

func TestWritePageIsStandalone(t *testing.T) {
	tree, _ := BuildTree("install.html", sampleTable(), navtree.DefaultOptions())
	var buf bytes.Buffer
	if err := WritePage(&buf, tree, HTMLOptions{Title: "Docs & more"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "<title>Docs &amp; more</title>", `<div id="nav-tree">`, "scrollIntoView", "</html>"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestDocumentHostTracksVisibility(t *testing.T) {
	tree, host := BuildTree("api.html", sampleTable(), navtree.DefaultOptions())

	if host.centered != tree.Selected() || host.centered == nil {
		t.Fatal("loading should center the selected node")
	}
	if host.inserts != tree.NodeCount()-1 {
		t.Errorf("inserted %d, materialized %d", host.inserts, tree.NodeCount()-1)
	}

	docs := tree.Root().Children()[1]
	if hidden(docs.Container()) {
		t.Fatal("Docs is on the path and should be shown")
	}
	tree.Toggle(docs)
	if !hidden(docs.Container()) {
		t.Error("collapsing should hide the list")
	}
	tree.Toggle(docs)
	if hidden(docs.Container()) {
		t.Error("expanding should show the list again")
	}
}
