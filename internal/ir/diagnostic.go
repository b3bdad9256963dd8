package ir

import (
	"fmt"
	"sort"
	"strings"
)

// DiagnosticKind categorizes a diagnostic.
type DiagnosticKind string

const (
	// DiagPointStarted marks the start of a scan point.
	DiagPointStarted DiagnosticKind = "POINT_STARTED"

	// DiagMissingInput reports a skipped point with a missing input file.
	DiagMissingInput DiagnosticKind = "MISSING_INPUT"

	// DiagFatal reports the error that aborted the run.
	DiagFatal DiagnosticKind = "FATAL"

	// DiagSummary reports the final number of valid scan points.
	DiagSummary DiagnosticKind = "SUMMARY"
)

// Severity is how a reporter should present a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

// Diagnostic is structured information emitted while scanning.
// Formatting is left to the reporter.
type Diagnostic struct {
	Kind      DiagnosticKind    `json:"kind"`
	Severity  Severity          `json:"severity"`
	ScanPoint string            `json:"scan_point,omitempty"`
	Histogram string            `json:"histogram,omitempty"`
	Path      string            `json:"path,omitempty"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// String renders the diagnostic on one line with details in sorted key order.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Kind, d.Message)
	if d.ScanPoint != "" {
		fmt.Fprintf(&b, " point=%s", d.ScanPoint)
	}
	if d.Histogram != "" {
		fmt.Fprintf(&b, " histogram=%q", d.Histogram)
	}
	if d.Path != "" {
		fmt.Fprintf(&b, " path=%s", d.Path)
	}
	keys := make([]string, 0, len(d.Details))
	for k := range d.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, d.Details[k])
	}
	return b.String()
}
