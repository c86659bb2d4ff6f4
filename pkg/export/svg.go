package export

import (
	"bytes"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

const (
	svgLineStyle     = "stroke:#9aa5b8;stroke-width:1"
	svgBoxStyle      = "fill:#ffffff;stroke:#5f6b80;stroke-width:1"
	svgMarkStyle     = "stroke:#283a5d;stroke-width:1"
	svgSelectedStyle = "fill:#e8eef8"
	svgLinkStyle     = "font-family:sans-serif;font-size:13px;fill:#283a5d"
	svgNoLinkStyle   = "font-family:sans-serif;font-size:13px;fill:#555555"
)

// WriteSVG draws the rows t currently shows as an SVG image.
func WriteSVG(w io.Writer, t *navtree.Tree) error {
	s := layoutTree(t)
	width, height := int(s.Width), int(s.Height)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")

	for _, row := range s.Rows {
		if row.Selected {
			canvas.Rect(0, int(row.Top), width, int(rowHeight), svgSelectedStyle)
		}
		for _, l := range row.Lines {
			canvas.Line(int(l.X1), int(l.Y1), int(l.X2), int(l.Y2), svgLineStyle)
		}
		if b := row.Toggle; b != nil {
			half := int(toggleSize / 2)
			cx, cy := int(b.CX), int(b.CY)
			canvas.Rect(cx-half, cy-half, int(toggleSize), int(toggleSize), svgBoxStyle)
			canvas.Line(cx-half+2, cy, cx+half-2, cy, svgMarkStyle)
			if !b.Open {
				canvas.Line(cx, cy-half+2, cx, cy+half-2, svgMarkStyle)
			}
		}
		style := svgLinkStyle
		if !row.Linked {
			style = svgNoLinkStyle
		}
		if row.Selected {
			style += ";font-weight:bold"
		}
		canvas.Text(int(row.TextX), int(row.Baseline), row.Label, style)
	}
	canvas.End()

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing svg: %w", err)
	}
	return nil
}
