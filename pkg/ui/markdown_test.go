package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

func TestNewMarkdownRenderer(t *testing.T) {
	mr := NewMarkdownRenderer(80)
	if mr.width != 80 {
		t.Errorf("expected width 80, got %d", mr.width)
	}
	if mr.useTheme || mr.theme != nil {
		t.Error("plain renderer should not carry a theme")
	}
}

func TestNewMarkdownRendererWithTheme(t *testing.T) {
	mr := NewMarkdownRendererWithTheme(80, DefaultTheme(lipgloss.DefaultRenderer()))
	if !mr.useTheme || mr.theme == nil {
		t.Error("expected the theme to be stored")
	}
}

func TestMarkdownRenderer_Render(t *testing.T) {
	mr := NewMarkdownRenderer(80)
	result, err := mr.Render("# Hello\n\nWorld")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(result, "Hello") {
		t.Errorf("expected result to contain 'Hello', got: %s", result)
	}
}

func TestMarkdownRenderer_RenderNilRenderer(t *testing.T) {
	mr := &MarkdownRenderer{width: 80}
	result, err := mr.Render("# Test")
	if err != nil {
		t.Fatalf("Render with nil renderer should not error: %v", err)
	}
	if result != "# Test" {
		t.Errorf("expected raw markdown when renderer is nil, got: %s", result)
	}
}

func TestMarkdownRenderer_SetWidth(t *testing.T) {
	mr := NewMarkdownRenderer(80)
	original := mr.renderer

	mr.SetWidth(80)
	if mr.renderer != original {
		t.Error("SetWidth with same width should not recreate renderer")
	}
	mr.SetWidth(0)
	mr.SetWidth(-1)
	if mr.width != 80 {
		t.Error("non-positive widths should be ignored")
	}
	mr.SetWidth(100)
	if mr.width != 100 {
		t.Errorf("expected width 100, got %d", mr.width)
	}
}

func TestMarkdownRenderer_SetWidthWithTheme(t *testing.T) {
	mr := NewMarkdownRenderer(80)
	mr.SetWidthWithTheme(100, DefaultTheme(lipgloss.DefaultRenderer()))
	if mr.width != 100 || !mr.useTheme || mr.theme == nil {
		t.Errorf("width=%d useTheme=%v theme=%v", mr.width, mr.useTheme, mr.theme != nil)
	}
}

func TestExtractHex(t *testing.T) {
	ac := lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	if got := extractHex(ac, false); got != "#ffffff" {
		t.Errorf("light = %s", got)
	}
	if got := extractHex(ac, true); got != "#000000" {
		t.Errorf("dark = %s", got)
	}
}

func TestBuildStyleFromTheme(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())

	dark := buildStyleFromTheme(theme, true)
	if dark.Document.Color == nil || *dark.Document.Color != theme.Text.Dark {
		t.Errorf("dark document color = %v", dark.Document.Color)
	}
	light := buildStyleFromTheme(theme, false)
	if *light.Document.Color != theme.Text.Light {
		t.Errorf("light document color = %s", *light.Document.Color)
	}
	if *light.Link.Color != theme.Highlight.Light {
		t.Errorf("link color = %s", *light.Link.Color)
	}
}

func TestDetailMarkdown(t *testing.T) {
	tm := newTestTree(t, "install.html")
	n := tm.CursorNode()

	md := DetailMarkdown(tm.Tree(), n)
	for _, want := range []string{"# Install", "`install.html`", "Docs › Guide › Install", "**Current page**"} {
		if !strings.Contains(md, want) {
			t.Errorf("detail missing %q:\n%s", want, md)
		}
	}
}

func TestDetailMarkdownUnlinkedParent(t *testing.T) {
	tm := newTestTree(t, "index.html")
	moveTo(t, &tm, "Misc")

	md := DetailMarkdown(tm.Tree(), tm.CursorNode())
	if !strings.Contains(md, "toggles") {
		t.Errorf("expected the toggle note:\n%s", md)
	}
	if !strings.Contains(md, "**Children:** 1 (collapsed)") {
		t.Errorf("expected child count:\n%s", md)
	}
}

func TestDetailMarkdownHrefWithRelPath(t *testing.T) {
	host := NewTermHost(0)
	tree := navtree.Initialize("api.html", sampleTable(), host, navtree.Options{RelPath: "../"})
	md := DetailMarkdown(tree, tree.Selected())
	if !strings.Contains(md, "`../api.html`") {
		t.Errorf("expected href with relpath:\n%s", md)
	}
}

func TestDetailMarkdownSummary(t *testing.T) {
	table := sampleTable()
	table.Entries[0].Summary = "The *landing* page."
	host := NewTermHost(0)
	tree := navtree.Initialize("index.html", table, host, navtree.DefaultOptions())

	md := DetailMarkdown(tree, tree.Selected())
	if !strings.Contains(md, "The *landing* page.") {
		t.Errorf("summary missing:\n%s", md)
	}
}

func TestDetailMarkdownNothingSelected(t *testing.T) {
	if got := DetailMarkdown(nil, nil); !strings.Contains(got, "Nothing selected") {
		t.Errorf("got %q", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	got := escapeMarkdown("afg::CEdgeW2< WType1, WType2 >")
	if got != `afg::CEdgeW2\< WType1, WType2 >` {
		t.Errorf("escapeMarkdown = %q", got)
	}
	if got := escapeMarkdown("named_pair"); got != `named\_pair` {
		t.Errorf("escapeMarkdown = %q", got)
	}
}
