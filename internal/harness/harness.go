package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/yodascan/internal/aggregate"
	"github.com/roach88/yodascan/internal/bundle"
	"github.com/roach88/yodascan/internal/ir"
	"github.com/roach88/yodascan/internal/scan"
	"github.com/roach88/yodascan/internal/testutil"
)

// Run materializes the scenario's scan tree in a temporary directory, scans
// it and evaluates the expect clause and assertions.
//
// A scan failure is an outcome, not an error: it is recorded in the result
// and checked against the expect clause. The returned error covers only
// problems setting the scenario up.
func Run(scenario *Scenario) (*Result, error) {
	root, err := os.MkdirTemp("", "yodascan-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scan directory: %w", err)
	}
	defer os.RemoveAll(root)

	if err := Materialize(root, scenario.Points); err != nil {
		return nil, err
	}

	reporter := &scan.CollectingReporter{}
	clock := testutil.NewDeterministicClock()
	runner := scan.NewRunner(root, ir.NewTrackedSet(scenario.Histograms...),
		scan.WithStrict(scenario.Strict),
		scan.WithReporter(reporter),
		scan.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		scan.WithClock(clock.Now),
	)

	result := NewResult()
	result.Table, result.Summary, result.Err = runner.Run(context.Background())
	for _, d := range reporter.Diagnostics() {
		d.Path = ""
		result.Diagnostics = append(result.Diagnostics, d)
	}

	checkExpectation(result, scenario.Expect)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// Materialize writes one directory per point under root.
func Materialize(root string, points []PointSpec) error {
	for _, p := range points {
		dir := filepath.Join(root, p.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("point %s: %w", p.ID, err)
		}
		if !p.NoParams {
			if err := writeFile(filepath.Join(dir, testutil.ParamFile), p.Params); err != nil {
				return fmt.Errorf("point %s: %w", p.ID, err)
			}
		}
		if !p.NoBundle {
			if err := writeFile(filepath.Join(dir, testutil.BundleFile), renderBundle(p)); err != nil {
				return fmt.Errorf("point %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

func renderBundle(p PointSpec) string {
	var b strings.Builder
	for _, h := range p.Histograms {
		rows := make([]testutil.BinRow, len(h.Bins))
		for i, bin := range h.Bins {
			rows[i] = testutil.BinRow(bin)
		}
		b.WriteString(testutil.Block(h.Name, h.Title, rows...))
	}
	b.WriteString(p.Bundle)
	return b.String()
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ErrorCode returns the code of a scan error: the consistency or parse
// error code, or "FATAL" for any other error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := aggregate.AsConsistencyError(err); ok {
		return string(ce.Code)
	}
	var pe *bundle.ParseError
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return string(ir.DiagFatal)
}

// fatal returns the last FATAL diagnostic, if any.
func (r *Result) fatal() (ir.Diagnostic, bool) {
	for i := len(r.Diagnostics) - 1; i >= 0; i-- {
		if r.Diagnostics[i].Kind == ir.DiagFatal {
			return r.Diagnostics[i], true
		}
	}
	return ir.Diagnostic{}, false
}

func checkExpectation(r *Result, want Expectation) {
	if want.Error == "" {
		if r.Err != nil {
			r.AddError(fmt.Sprintf("expect: scan failed: %v", r.Err))
			return
		}
		if want.Columns != nil && r.Table.Columns() != *want.Columns {
			r.AddError(fmt.Sprintf("expect: columns = %d, want %d", r.Table.Columns(), *want.Columns))
		}
		if !slices.Equal(r.Summary.Skipped, want.Skipped) {
			r.AddError(fmt.Sprintf("expect: skipped = %v, want %v", r.Summary.Skipped, want.Skipped))
		}
		return
	}

	if r.Err == nil {
		r.AddError(fmt.Sprintf("expect: scan succeeded, want error %s", want.Error))
		return
	}
	if got := ErrorCode(r.Err); got != want.Error {
		r.AddError(fmt.Sprintf("expect: error = %s (%v), want %s", got, r.Err, want.Error))
	}
	if r.Table != nil {
		r.AddError("expect: failed scan returned a table")
	}

	d, ok := r.fatal()
	if !ok {
		r.AddError("expect: no FATAL diagnostic reported")
		return
	}
	if want.Histogram != "" && d.Histogram != want.Histogram {
		r.AddError(fmt.Sprintf("expect: histogram = %q, want %q", d.Histogram, want.Histogram))
	}
	if want.Point != "" && d.ScanPoint != want.Point {
		r.AddError(fmt.Sprintf("expect: point = %q, want %q", d.ScanPoint, want.Point))
	}
}
