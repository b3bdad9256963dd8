package scan

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/yodascan/internal/ir"
)

// Reporter receives diagnostics as the scan progresses.
type Reporter interface {
	Report(d ir.Diagnostic)
}

// SlogReporter formats diagnostics as structured log records.
type SlogReporter struct {
	Logger *slog.Logger
}

// NewSlogReporter returns a reporter logging to logger, or slog.Default().
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{Logger: logger}
}

// Report logs d at the level matching its severity.
func (r *SlogReporter) Report(d ir.Diagnostic) {
	attrs := []slog.Attr{slog.String("kind", string(d.Kind))}
	if d.ScanPoint != "" {
		attrs = append(attrs, slog.String("point", d.ScanPoint))
	}
	if d.Histogram != "" {
		attrs = append(attrs, slog.String("histogram", d.Histogram))
	}
	if d.Path != "" {
		attrs = append(attrs, slog.String("path", d.Path))
	}
	keys := make([]string, 0, len(d.Details))
	for k := range d.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, d.Details[k]))
	}

	r.Logger.LogAttrs(context.Background(), level(d.Severity), d.Message, attrs...)
}

func level(s ir.Severity) slog.Level {
	switch s {
	case ir.SeverityWarn:
		return slog.LevelWarn
	case ir.SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CollectingReporter keeps every diagnostic in memory.
type CollectingReporter struct {
	mu    sync.Mutex
	diags []ir.Diagnostic
}

// Report appends d.
func (r *CollectingReporter) Report(d ir.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
}

// Diagnostics returns a copy of the collected diagnostics.
func (r *CollectingReporter) Diagnostics() []ir.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ir.Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// OfKind returns the collected diagnostics of one kind.
func (r *CollectingReporter) OfKind(kind ir.DiagnosticKind) []ir.Diagnostic {
	var out []ir.Diagnostic
	for _, d := range r.Diagnostics() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

type multiReporter []Reporter

func (m multiReporter) Report(d ir.Diagnostic) {
	for _, r := range m {
		r.Report(d)
	}
}

// MultiReporter fans diagnostics out to every reporter.
func MultiReporter(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}
