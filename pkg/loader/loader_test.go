package loader

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

func TestParseDoxygenFixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "navtree.js"))
	if err != nil {
		t.Fatal(err)
	}
	entries, err := ParseDoxygen(data)
	if err != nil {
		t.Fatalf("ParseDoxygen() error = %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 top-level entry, got %d", len(entries))
	}
	root := entries[0]
	if root.Label != "afgraph" || root.Link != "index.html" {
		t.Errorf("unexpected root %q -> %q", root.Label, root.Link)
	}
	if len(root.Children) != 10 {
		t.Fatalf("expected 10 sections, got %d", len(root.Children))
	}
	if root.Children[0].Link != "index.html" || !root.Children[0].IsLeaf() {
		t.Errorf("expected the main page as a leaf linking index.html, got %+v", root.Children[0])
	}

	modules := root.Children[1]
	if modules.Label != "Modules" || modules.Link != "modules.html" {
		t.Errorf("unexpected second section %q", modules.Label)
	}
	named := modules.Children[1].Children[0]
	if named.Label != "Named Pair" || named.Link != "group__namedp.html" {
		t.Errorf("unexpected nested entry %+v", named)
	}

	// Template labels keep their angle brackets
	table := model.Table{Entries: entries}
	var templated *model.Entry
	table.Walk(func(e *model.Entry, _ []int) bool {
		if strings.HasPrefix(e.Label, "afg::CEdgeW2<") {
			templated = e
			return false
		}
		return true
	})
	if templated == nil || templated.Label != "afg::CEdgeW2< WType1, WType2 >" {
		t.Errorf("expected the raw template label, got %v", templated)
	}
}

func TestParseDoxygenKeepsLabelsRaw(t *testing.T) {
	src := `var NAVTREE =
[
  [ "A &amp; B", "ab.html", null ],
  [ "vector< T >", null, [
    [ "size", "size.html", null ]
  ] ]
];

var NAVTREEINDEX = [ "x" ];
`
	entries, err := ParseDoxygen([]byte(src))
	if err != nil {
		t.Fatalf("ParseDoxygen() error = %v", err)
	}
	want := []model.Entry{
		{Label: "A &amp; B", Link: "ab.html"},
		{Label: "vector< T >", Children: []model.Entry{{Label: "size", Link: "size.html"}}},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("got %+v, want %+v", entries, want)
	}
}

func TestWriteDoxygenKeepsLabelsRaw(t *testing.T) {
	var buf bytes.Buffer
	entries := []model.Entry{{Label: "afg::CEdgeW2< WType1, WType2 >", Link: "a.html?x=1&y=2"}}
	if err := WriteDoxygen(&buf, entries); err != nil {
		t.Fatal(err)
	}
	want := "var NAVTREE =\n[\n  [ \"afg::CEdgeW2< WType1, WType2 >\", \"a.html?x=1&y=2\", null ]\n];\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestParseDoxygenBracketsInStrings(t *testing.T) {
	src := `var NAVTREE = [ [ "operator[]", "op.html", null ], [ "say \"]\"", "q.html", null ] ];`
	entries, err := ParseDoxygen([]byte(src))
	if err != nil {
		t.Fatalf("ParseDoxygen() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Label != "operator[]" || entries[1].Label != `say "]"` {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestParseDoxygenErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		noTab bool
	}{
		{"no variable", "var OTHER = [];", true},
		{"no literal", "var NAVTREE = null;", true},
		{"unterminated", `var NAVTREE = [ [ "a", null, null ]`, true},
		{"short row", `var NAVTREE = [ [ "a" ] ];`, false},
		{"bad label", `var NAVTREE = [ [ 1, null, null ] ];`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDoxygen([]byte(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(err, ErrNoTable) != tt.noTab {
				t.Errorf("errors.Is(ErrNoTable) = %v for %v", !tt.noTab, err)
			}
		})
	}
}

func TestDoxygenRoundTrip(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "navtree.js"))
	if err != nil {
		t.Fatal(err)
	}
	entries, err := ParseDoxygen(data)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteDoxygen(&buf, entries); err != nil {
		t.Fatalf("WriteDoxygen() error = %v", err)
	}
	again, err := ParseDoxygen(buf.Bytes())
	if err != nil {
		t.Fatalf("re-parsing written table: %v", err)
	}
	if !reflect.DeepEqual(entries, again) {
		t.Error("round trip changed the table")
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("written table differs from the fixture:\n%s", buf.String())
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		data string
		want Format
	}{
		{"html/navtree.js", "", FormatDoxygen},
		{"site.navtree.json", "", FormatJSON},
		{"site.yml", "", FormatYAML},
		{"table", "var NAVTREE = []", FormatDoxygen},
		{"table", `  [{"label":"a"}]`, FormatJSON},
		{"table", "- label: a\n", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.path+tt.data, func(t *testing.T) {
			got, err := DetectFormat(tt.path, []byte(tt.data))
			if err != nil {
				t.Fatalf("DetectFormat() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := DetectFormat("notes.txt", []byte("hello")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("expected yaml, got %s %v", f, err)
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "site.navtree.yaml")
	yamlSrc := `- label: Home
  link: index.html
  summary: "Start **here**"
- label: Docs
  children:
    - label: API
      link: api.html
    - label: Guide
      link: guide.html
`
	if err := os.WriteFile(yamlPath, []byte(yamlSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	fromYAML, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load(yaml) error = %v", err)
	}
	if fromYAML.Source != yamlPath {
		t.Errorf("expected source %q, got %q", yamlPath, fromYAML.Source)
	}
	if fromYAML.Entries[0].Summary != "Start **here**" {
		t.Errorf("summary not loaded: %+v", fromYAML.Entries[0])
	}

	jsonPath := filepath.Join(dir, "site.navtree.json")
	f, err := os.Create(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(f, fromYAML.Entries, FormatJSON); err != nil {
		t.Fatalf("Write(json) error = %v", err)
	}
	f.Close()

	fromJSON, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load(json) error = %v", err)
	}
	if !reflect.DeepEqual(fromYAML.Entries, fromJSON.Entries) {
		t.Errorf("JSON and YAML tables differ:\n%+v\n%+v", fromYAML.Entries, fromJSON.Entries)
	}
	if fromJSON.Entries[1].Children[0].Link != "api.html" {
		t.Errorf("unexpected nested link %+v", fromJSON.Entries[1])
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "absent.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); !errors.Is(err, ErrNoTable) {
		t.Errorf("expected ErrNoTable for an empty file, got %v", err)
	}
}

func TestLoadKeepsUnlabeledEntries(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "navtree.js")
	src := "var NAVTREE =\n[\n  [ \"Home\", \"index.html\", null ],\n  [ \"\", \"anon.html\", null ]\n];\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(table.Entries) != 2 || table.Entries[1].Link != "anon.html" {
		t.Errorf("entries = %+v", table.Entries)
	}
	if !strings.Contains(logs.String(), "entry without a label") || !strings.Contains(logs.String(), "entry=1") {
		t.Errorf("expected a warning naming entry 1, got:\n%s", logs.String())
	}
}

func TestWriteUnsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, Format("toml")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
