package export

import (
	"fmt"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// WritePNG draws the rows t currently shows as a PNG image.
func WritePNG(w io.Writer, t *navtree.Tree) error {
	s := layoutTree(t)
	dc := gg.NewContext(int(s.Width), int(s.Height))
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(1)

	for _, row := range s.Rows {
		if row.Selected {
			dc.SetHexColor("#e8eef8")
			dc.DrawRectangle(0, row.Top, s.Width, rowHeight)
			dc.Fill()
		}

		dc.SetHexColor("#9aa5b8")
		for _, l := range row.Lines {
			dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
		}
		dc.Stroke()

		if b := row.Toggle; b != nil {
			half := toggleSize / 2
			dc.SetHexColor("#ffffff")
			dc.DrawRectangle(b.CX-half, b.CY-half, toggleSize, toggleSize)
			dc.FillPreserve()
			dc.SetHexColor("#5f6b80")
			dc.Stroke()
			dc.SetHexColor("#283a5d")
			dc.DrawLine(b.CX-half+2, b.CY, b.CX+half-2, b.CY)
			if !b.Open {
				dc.DrawLine(b.CX, b.CY-half+2, b.CX, b.CY+half-2)
			}
			dc.Stroke()
		}

		if row.Linked {
			dc.SetHexColor("#283a5d")
		} else {
			dc.SetHexColor("#555555")
		}
		dc.DrawString(row.Label, row.TextX, row.Baseline)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
