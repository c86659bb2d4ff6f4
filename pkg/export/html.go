// Package export renders navigation trees outside the terminal: HTML
// documents and fragments, SVG and PNG snapshots, markdown outlines, and the
// preview server that keeps a docs directory's tree in sync with the page
// being viewed.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// list is the HostData the document host attaches to each container: the
// children_ul element of the browser tree.
type list struct {
	hidden bool
}

// DocumentHost implements navtree.Host for static documents. Every container
// gets a list element that starts hidden (display:none); animations finish
// at once because there is nothing to animate until a browser takes over.
type DocumentHost struct {
	centered *navtree.Node
	inserts  int
}

// NewDocumentHost creates an empty document host.
func NewDocumentHost() *DocumentHost {
	return &DocumentHost{}
}

func listOf(c *navtree.Container) *list {
	if l, ok := c.HostData.(*list); ok {
		return l
	}
	l := &list{hidden: true}
	c.HostData = l
	return l
}

// Insert appends n to parent's list, creating the list on first use.
func (h *DocumentHost) Insert(parent *navtree.Container, _ *navtree.Node) {
	listOf(parent)
	h.inserts++
}

// AnimateShow displays c and completes immediately.
func (h *DocumentHost) AnimateShow(c *navtree.Container, done func()) {
	listOf(c).hidden = false
	if done != nil {
		done()
	}
}

// AnimateHide sets c back to display:none.
func (h *DocumentHost) AnimateHide(c *navtree.Container) {
	listOf(c).hidden = true
}

// ShowNow displays c.
func (h *DocumentHost) ShowNow(c *navtree.Container) {
	listOf(c).hidden = false
}

// ScrollToCenter remembers n; the page script scrolls #selected into view.
func (h *DocumentHost) ScrollToCenter(n *navtree.Node) {
	h.centered = n
}

// hidden reports whether c's list carries display:none. Containers the
// document host never saw fall back to the engine's visibility.
func hidden(c *navtree.Container) bool {
	if l, ok := c.HostData.(*list); ok {
		return l.hidden
	}
	return !c.Visible
}

// BuildTree initializes the tree for page against a fresh document host and
// signals that the page has loaded.
func BuildTree(page string, table model.Table, opts navtree.Options) (*navtree.Tree, *DocumentHost) {
	host := NewDocumentHost()
	tree := navtree.Initialize(page, table, host, opts)
	tree.Loaded()
	return tree, host
}

// HTMLOptions controls HTML output.
type HTMLOptions struct {
	Title string

	// Summaries renders each entry's markdown summary under its label.
	Summaries bool

	// Complete materializes every subtree, hidden, so the page can be browsed
	// offline without going back to the server.
	Complete bool

	// AssetPath is prepended to connector icon names. Empty uses the tree's
	// relative path.
	AssetPath string
}

type iconView struct {
	Src string
	Alt string
}

type itemView struct {
	ID       navtree.NodeID
	Selected bool
	Toggle   bool
	Indent   []iconView
	Icon     iconView
	Href     string
	NoLink   bool
	Label    string
	Summary  template.HTML
	Children *listView
}

type listView struct {
	Class  string
	Hidden bool
	Items  []itemView
}

// glyphAlt is the text fallback for each connector icon.
var glyphAlt = map[navtree.Glyph]string{
	navtree.GlyphBlank:     " ",
	navtree.GlyphVertLine:  "|",
	navtree.GlyphNode:      "o",
	navtree.GlyphLastNode:  "o",
	navtree.GlyphPlus:      "+",
	navtree.GlyphPlusLast:  "+",
	navtree.GlyphMinus:     "-",
	navtree.GlyphMinusLast: "-",
}

const treeTemplate = `{{define "list"}}<ul{{if .Class}} class="{{.Class}}"{{end}}{{if .Hidden}} style="display:none"{{end}}>
{{range .Items}}<li><div class="item{{if .Selected}} selected{{end}}"{{if .Selected}} id="selected"{{end}} data-node="{{.ID}}">{{range .Indent}}<img src="{{.Src}}" alt="{{.Alt}}" border="0"/>{{end}}{{if .Toggle}}<a class="toggle" href="javascript:void(0)"><img src="{{.Icon.Src}}" alt="{{.Icon.Alt}}" border="0"/></a>{{else}}<img src="{{.Icon.Src}}" alt="{{.Icon.Alt}}" border="0"/>{{end}}<span class="label">{{if .NoLink}}<a class="nolink" href="javascript:void(0)">{{.Label}}</a>{{else if .Href}}<a href="{{.Href}}">{{.Label}}</a>{{else}}<a>{{.Label}}</a>{{end}}</span>{{if .Summary}}<div class="summary">{{.Summary}}</div>{{end}}</div>{{with .Children}}{{template "list" .}}{{end}}</li>
{{end}}</ul>{{end}}{{define "fragment"}}<div id="nav-tree-contents">{{template "list" .}}</div>{{end}}`

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<title>{{.Title}}</title>
<style>
#nav-tree ul { list-style: none; margin: 0; padding: 0; }
#nav-tree .item { white-space: nowrap; font: 13px sans-serif; line-height: 22px; }
#nav-tree .item img { vertical-align: middle; width: 16px; height: 22px; }
#nav-tree .item.selected { background: #e8eef8; font-weight: bold; }
#nav-tree a { text-decoration: none; color: #283a5d; }
#nav-tree a.nolink { color: #555; }
#nav-tree .summary { margin-left: 2em; font-size: 12px; color: #666; white-space: normal; }
</style>
</head>
<body>
<div id="nav-tree">{{template "fragment" .Tree}}</div>
<script>{{.Script}}</script>
</body>
</html>
`

// toggleScript flips the sibling list of a clicked toggle and swaps the
// plus/minus icon, matching the engine's toggle semantics.
const toggleScript = `(function() {
  function flip(item) {
    var ul = item.parentNode.querySelector(':scope > ul');
    var img = item.querySelector('a.toggle img');
    if (!ul || !img) return;
    var open = ul.style.display === 'none';
    ul.style.display = open ? '' : 'none';
    img.src = open ? img.src.replace('ftv2p', 'ftv2m') : img.src.replace('ftv2m', 'ftv2p');
  }
  document.querySelectorAll('#nav-tree a.toggle, #nav-tree a.nolink').forEach(function(a) {
    a.addEventListener('click', function(e) { e.preventDefault(); flip(a.closest('.item')); });
  });
  var sel = document.getElementById('selected');
  if (sel) sel.scrollIntoView({block: 'center'});
})();`

var templates = template.Must(template.New("nav").Parse(treeTemplate))

var pageTmpl = template.Must(template.Must(templates.Clone()).New("page").Parse(pageTemplate))

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// WriteFragment writes the #nav-tree-contents element for t.
func WriteFragment(w io.Writer, t *navtree.Tree, opts HTMLOptions) error {
	view, err := buildList(t, t.Root(), opts)
	if err != nil {
		return err
	}
	if err := templates.ExecuteTemplate(w, "fragment", view); err != nil {
		return fmt.Errorf("rendering tree fragment: %w", err)
	}
	return nil
}

// WritePage writes a standalone HTML document containing the tree and the
// script that makes its toggles work.
func WritePage(w io.Writer, t *navtree.Tree, opts HTMLOptions) error {
	view, err := buildList(t, t.Root(), opts)
	if err != nil {
		return err
	}
	title := opts.Title
	if title == "" {
		title = "Navigation"
	}
	data := struct {
		Title  string
		Tree   *listView
		Script template.JS
	}{title, view, template.JS(toggleScript)}
	if err := pageTmpl.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// buildList converts the materialized children of n into the list view.
func buildList(t *navtree.Tree, n *navtree.Node, opts HTMLOptions) (*listView, error) {
	c := n.Container()
	if c == nil {
		return nil, nil
	}
	lv := &listView{Hidden: hidden(c)}
	if !n.IsRoot() {
		lv.Class = "children_ul"
	}
	assets := opts.AssetPath
	if assets == "" {
		assets = t.Options().RelPath
	}

	for _, child := range c.Nodes {
		if opts.Complete {
			t.Materialize(child)
		}
		glyphs := navtree.Connectors(child)
		own := glyphs[len(glyphs)-1]
		item := itemView{
			ID:       child.ID,
			Selected: child.Selected(),
			Toggle:   own.IsToggle(),
			Icon:     iconView{Src: assets + own.Asset(), Alt: glyphAlt[own]},
			Href:     t.Href(child),
			NoLink:   child.Activation() == navtree.ActivateToggle,
			Label:    child.Label(),
		}
		for _, g := range glyphs[:len(glyphs)-1] {
			item.Indent = append(item.Indent, iconView{Src: assets + g.Asset(), Alt: glyphAlt[g]})
		}
		if opts.Summaries && child.Entry != nil && child.Entry.Summary != "" {
			html, err := renderSummary(child.Entry.Summary)
			if err != nil {
				return nil, fmt.Errorf("summary of %q: %w", child.Label(), err)
			}
			item.Summary = html
		}
		sub, err := buildList(t, child, opts)
		if err != nil {
			return nil, err
		}
		item.Children = sub
		lv.Items = append(lv.Items, item)
	}
	return lv, nil
}

// renderSummary converts markdown to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer, so the result is safe to embed.
func renderSummary(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
