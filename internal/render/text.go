package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/roach88/yodascan/internal/ir"
)

// TextRenderer writes a plain-text listing of the table.
type TextRenderer struct{}

// Render implements Renderer.
func (TextRenderer) Render(w io.Writer, t *ir.Table) error {
	if t == nil {
		return errNilTable
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Num coeff variations: %d\n", t.Columns())
	fmt.Fprintf(bw, "Histograms: %d\n", len(t.Histograms))

	for _, h := range t.Histograms {
		fmt.Fprintf(bw, "\n%s %q bins=%d fills=%d\n", h.Name, h.Title, len(h.Bins), h.Fills)
		for _, b := range h.Bins {
			bw.WriteString("  " + b.Label())
			for _, v := range b.Values {
				bw.WriteString(" " + ir.FormatFloat(v))
			}
			bw.WriteByte('\n')
		}
	}

	if len(t.Points) > 0 {
		bw.WriteString("\nPoints:\n")
		for _, p := range t.Points {
			if title := p.Title(); title != "" {
				fmt.Fprintf(bw, "  %s %s\n", p.Point, title)
			} else {
				fmt.Fprintf(bw, "  %s\n", p.Point)
			}
		}
	}
	return bw.Flush()
}
