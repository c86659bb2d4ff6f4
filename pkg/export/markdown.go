package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// OutlineOptions controls the markdown outline.
type OutlineOptions struct {
	Title string

	// RelPath is prepended to every link.
	RelPath string

	// Current bolds the entry for this page and every ancestor on its path.
	Current string

	// Summaries adds the first line of each entry's summary.
	Summaries bool

	// MaxDepth limits nesting; zero means unlimited.
	MaxDepth int
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
)

// GenerateOutline renders the whole table as a nested markdown list.
func GenerateOutline(table model.Table, opts OutlineOptions) string {
	var sb strings.Builder

	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", opts.Title))
	}

	onPath := make(map[string]bool)
	if path := navtree.FindPath(opts.Current, table.Entries); path != nil {
		for i := range path {
			onPath[model.FormatPath(path[:i+1])] = true
		}
	}

	table.Walk(func(e *model.Entry, path []int) bool {
		depth := len(path)
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			return true
		}
		indent := strings.Repeat("  ", depth-1)

		label := mdEscaper.Replace(e.Label)
		if e.HasLink() {
			label = fmt.Sprintf("[%s](%s)", label, linkTarget(opts.RelPath, e.Link))
		}
		if onPath[model.FormatPath(path)] {
			label = "**" + label + "**"
		}
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, label))

		if opts.Summaries && e.Summary != "" {
			first, _, _ := strings.Cut(strings.TrimSpace(e.Summary), "\n")
			sb.WriteString(fmt.Sprintf("%s  %s\n", indent, first))
		}
		return true
	})

	if table.Count() == 0 {
		sb.WriteString("_No entries._\n")
	}
	return sb.String()
}

// WriteOutline writes GenerateOutline's result to w.
func WriteOutline(w io.Writer, table model.Table, opts OutlineOptions) error {
	if _, err := io.WriteString(w, GenerateOutline(table, opts)); err != nil {
		return fmt.Errorf("writing outline: %w", err)
	}
	return nil
}

func linkTarget(relPath, link string) string {
	if relPath == "" || strings.Contains(link, "://") {
		return link
	}
	return relPath + link
}
