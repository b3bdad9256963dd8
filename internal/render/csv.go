package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/roach88/yodascan/internal/ir"
)

// CSVRenderer writes the table in long form: one row per histogram, bin
// and scan point, with one column per parameter name.
type CSVRenderer struct{}

// Render implements Renderer.
func (CSVRenderer) Render(w io.Writer, t *ir.Table) error {
	if t == nil {
		return errNilTable
	}

	params := t.ParameterNames()
	cw := csv.NewWriter(w)

	header := append([]string{"histogram", "bin", "xlow", "xhigh", "point"}, params...)
	header = append(header, "value")
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, h := range t.Histograms {
		for b, bin := range h.Bins {
			for col, v := range bin.Values {
				p := t.Points[col]
				row = row[:0]
				row = append(row, h.Name, strconv.Itoa(b), ir.FormatFloat(bin.Low), ir.FormatFloat(bin.High), p.Point)
				for _, name := range params {
					val, _ := p.Get(name)
					row = append(row, val)
				}
				row = append(row, ir.FormatFloat(v))
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
