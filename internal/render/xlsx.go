package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/yodascan/internal/ir"
)

// PointsSheet is the name of the sheet listing the scan points.
const PointsSheet = "scan points"

// Rows of a histogram sheet.
const (
	headerRow = 1
	titleRow  = 2
	firstBin  = 3
)

// XLSXRenderer writes a workbook with a scan-point sheet followed by one
// sheet per histogram. A histogram sheet has the bin label and edges in
// columns A to C and one value column per scan point, with a line chart
// overlaying every scan point.
type XLSXRenderer struct{}

// Render implements Renderer.
func (XLSXRenderer) Render(w io.Writer, t *ir.Table) error {
	if t == nil {
		return errNilTable
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PointsSheet); err != nil {
		return err
	}
	if err := writePoints(f, t); err != nil {
		return err
	}

	used := map[string]bool{strings.ToLower(PointsSheet): true}
	for i := range t.Histograms {
		h := &t.Histograms[i]
		sheet := sheetName(h.Name, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %q: %w", h.Name, err)
		}
		if err := writeHistogram(f, sheet, h, t.Points); err != nil {
			return fmt.Errorf("sheet for %q: %w", h.Name, err)
		}
	}

	f.SetActiveSheet(0)
	_, err := f.WriteTo(w)
	return err
}

func writePoints(f *excelize.File, t *ir.Table) error {
	names := t.ParameterNames()
	header := make([]any, 0, len(names)+1)
	header = append(header, "point")
	for _, n := range names {
		header = append(header, n)
	}
	if err := f.SetSheetRow(PointsSheet, "A1", &header); err != nil {
		return err
	}

	for i, p := range t.Points {
		row := make([]any, 0, len(names)+1)
		row = append(row, p.Point)
		for _, n := range names {
			row = append(row, cellValue(p, n))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(PointsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue stores numeric parameters as numbers and anything else as text.
func cellValue(p ir.ParameterSet, name string) any {
	val, ok := p.Get(name)
	if !ok {
		return ""
	}
	if f, err := (ir.Parameter{Name: name, Value: val}).Float(); err == nil {
		return f
	}
	return val
}

func writeHistogram(f *excelize.File, sheet string, h *ir.AggregatedHistogram, points []ir.ParameterSet) error {
	header := []any{"bin", "xlow", "xhigh"}
	titles := []any{h.Title, "", ""}
	for _, p := range points {
		header = append(header, SeriesName(h.Name, p.Point))
		titles = append(titles, p.Title())
	}
	if err := f.SetSheetRow(sheet, cellName(1, headerRow), &header); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cellName(1, titleRow), &titles); err != nil {
		return err
	}

	for b, bin := range h.Bins {
		row := []any{bin.Label(), bin.Low, bin.High}
		for _, v := range bin.Values {
			row = append(row, v)
		}
		if err := f.SetSheetRow(sheet, cellName(1, firstBin+b), &row); err != nil {
			return err
		}
	}

	if len(h.Bins) == 0 || len(points) == 0 {
		return nil
	}
	return f.AddChart(sheet, cellName(len(points)+5, headerRow), overlayChart(sheet, h, len(points)))
}

func overlayChart(sheet string, h *ir.AggregatedHistogram, columns int) *excelize.Chart {
	ref := "'" + strings.ReplaceAll(sheet, "'", "''") + "'!"
	lastBin := firstBin + len(h.Bins) - 1
	categories := fmt.Sprintf("%s$A$%d:$A$%d", ref, firstBin, lastBin)

	chart := &excelize.Chart{
		Type:      excelize.Line,
		Title:     []excelize.RichTextRun{{Text: chartTitle(h)}},
		Legend:    excelize.ChartLegend{Position: "right"},
		Dimension: excelize.ChartDimension{Width: 640, Height: 400},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: h.Name}}},
	}
	for c := 0; c < columns; c++ {
		col, _ := excelize.ColumnNumberToName(4 + c)
		chart.Series = append(chart.Series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s$%s$%d", ref, col, headerRow),
			Categories: categories,
			Values:     fmt.Sprintf("%s$%s$%d:$%s$%d", ref, col, firstBin, col, lastBin),
		})
	}
	if r, ok := YRange(h); ok && r.Max > r.Min {
		chart.YAxis.Minimum = &r.Min
		chart.YAxis.Maximum = &r.Max
	}
	return chart
}

func chartTitle(h *ir.AggregatedHistogram) string {
	if h.Title == "" {
		return h.Name
	}
	return h.Title
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// sheetName derives a unique, valid worksheet name from a histogram name.
func sheetName(histogram string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, histogram)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "histogram"
	}
	name = truncate(name, excelize.MaxSheetNameLength)

	// Sheet names compare case-insensitively.
	base := name
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		name = truncate(base, excelize.MaxSheetNameLength-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
