package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/yodascan/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome

	// Diagnostics gives the run's diagnostics as context.
	Diagnostics []ir.Diagnostic
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&buf, "\nDiagnostics:\n")
		for i, d := range e.Diagnostics {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, d.String())
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against the result and returns the
// failure messages. Table assertions fail when the scan produced no table.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(r, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertDiagnosticCount:
		return assertDiagnosticCount(r.Diagnostics, a)
	case AssertColumnValues, AssertEdges, AssertPointOrder:
		if r.Table == nil {
			return &AssertionError{
				Type:        a.Type,
				Expected:    "a finished table",
				Actual:      fmt.Sprintf("scan failed: %v", r.Err),
				Diagnostics: r.Diagnostics,
			}
		}
	}

	switch a.Type {
	case AssertColumnValues:
		return assertColumnValues(r.Table, a)
	case AssertEdges:
		return assertEdges(r.Table, a)
	case AssertPointOrder:
		return assertPointOrder(r.Table, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertColumnValues(t *ir.Table, a Assertion) error {
	h, ok := t.Histogram(a.Histogram)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "histogram " + a.Histogram, Actual: "not in table"}
	}
	if a.Bin >= len(h.Bins) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("bin %d", a.Bin),
			Actual:   fmt.Sprintf("%d bins", len(h.Bins)),
		}
	}
	got := h.Bins[a.Bin].Values
	if !equalFloats(got, a.Values) {
		return &AssertionError{
			Type:     a.Type,
			Expected: formatFloats(a.Values),
			Actual:   formatFloats(got),
		}
	}
	return nil
}

func assertEdges(t *ir.Table, a Assertion) error {
	h, ok := t.Histogram(a.Histogram)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "histogram " + a.Histogram, Actual: "not in table"}
	}
	got := make([]string, len(h.Bins))
	for i, b := range h.Bins {
		got[i] = b.Label()
	}
	want := make([]string, len(a.Edges))
	for i, e := range a.Edges {
		want[i] = ir.Edges{Low: e[0], High: e[1]}.Label()
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		return &AssertionError{
			Type:     a.Type,
			Expected: strings.Join(want, " "),
			Actual:   strings.Join(got, " "),
		}
	}
	return nil
}

func assertPointOrder(t *ir.Table, a Assertion) error {
	got := make([]string, len(t.Points))
	for i, p := range t.Points {
		got[i] = p.Point
	}
	if strings.Join(got, ",") != strings.Join(a.Points, ",") {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%v", a.Points),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertDiagnosticCount(diags []ir.Diagnostic, a Assertion) error {
	n := 0
	for _, d := range diags {
		if string(d.Kind) == a.Kind {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:        a.Type,
			Expected:    fmt.Sprintf("%d %s diagnostic(s)", a.Count, a.Kind),
			Actual:      fmt.Sprintf("%d", n),
			Diagnostics: diags,
		}
	}
	return nil
}

// equalFloats compares exactly; NaN equals NaN.
func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] && !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
			return false
		}
	}
	return true
}

func formatFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = ir.FormatFloat(f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
