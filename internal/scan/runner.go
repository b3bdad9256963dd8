package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/roach88/yodascan/internal/aggregate"
	"github.com/roach88/yodascan/internal/bundle"
	"github.com/roach88/yodascan/internal/extract"
	"github.com/roach88/yodascan/internal/ir"
	"github.com/roach88/yodascan/internal/metrics"
)

// Summary describes a finished or aborted run.
type Summary struct {
	// Root is the scanned directory.
	Root string `json:"root"`

	// Discovered counts the scan-point directories selected by the patterns.
	Discovered int `json:"discovered"`

	// Points counts the scan points that contributed a column.
	Points int `json:"points"`

	// Skipped lists the scan points dropped for a missing input file.
	Skipped []string `json:"skipped,omitempty"`

	// Histograms and Bins describe the finished table.
	Histograms int `json:"histograms"`
	Bins       int `json:"bins"`

	Duration time.Duration `json:"duration"`
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLayout sets the input file names looked up in each directory.
func WithLayout(layout Layout) RunnerOption {
	return func(r *Runner) { r.layout = layout }
}

// WithPatterns sets the doublestar include and exclude patterns applied to
// scan-point directory names.
func WithPatterns(include, exclude []string) RunnerOption {
	return func(r *Runner) {
		r.include = include
		r.exclude = exclude
	}
}

// WithStrict makes a tracked histogram missing from any scan point fatal.
func WithStrict(strict bool) RunnerOption {
	return func(r *Runner) { r.strict = strict }
}

// WithReporter sets the diagnostic reporter.
func WithReporter(rep Reporter) RunnerOption {
	return func(r *Runner) { r.reporter = rep }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithLogger sets the logger handed to the extractor.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock sets the time source used for durations.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// Runner scans one directory tree into a table.
type Runner struct {
	root     string
	tracked  ir.TrackedSet
	layout   Layout
	include  []string
	exclude  []string
	strict   bool
	reporter Reporter
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a runner for the scan rooted at root.
func NewRunner(root string, tracked ir.TrackedSet, opts ...RunnerOption) *Runner {
	r := &Runner{
		root:     root,
		tracked:  tracked,
		layout:   DefaultLayout,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.reporter == nil {
		r.reporter = NewSlogReporter(r.logger)
	}
	return r
}

// Run processes every scan point in directory-name order and returns the
// validated table.
//
// A point lacking an input file is reported and skipped. Any other error
// aborts the run; the returned Summary then describes the progress made
// and the table is nil. The context is checked between scan points.
func (r *Runner) Run(ctx context.Context) (*ir.Table, *Summary, error) {
	start := r.now()
	sum := &Summary{Root: r.root}

	table, err := r.run(ctx, sum)

	sum.Duration = r.now().Sub(start)
	r.recorder.ObserveRunDuration(sum.Duration)
	switch {
	case err == nil:
		r.recorder.IncRunOutcome(metrics.OutcomeSuccess)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.recorder.IncRunOutcome(metrics.OutcomeCanceled)
	default:
		r.recorder.IncRunOutcome(metrics.OutcomeFailed)
	}
	if err != nil {
		return nil, sum, err
	}
	return table, sum, nil
}

func (r *Runner) run(ctx context.Context, sum *Summary) (*ir.Table, error) {
	points, err := Discover(r.root, r.layout, r.include, r.exclude)
	if err != nil {
		return nil, err
	}
	sum.Discovered = len(points)

	agg := aggregate.New(r.tracked, aggregate.WithStrict(r.strict))
	ext := extract.New(r.tracked, r.logger)

	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan interrupted before %s: %w", p.ID, err)
		}

		r.reporter.Report(ir.Diagnostic{
			Kind:      ir.DiagPointStarted,
			Severity:  ir.SeverityInfo,
			ScanPoint: p.ID,
			Path:      p.Dir,
			Message:   "scan point",
		})

		pointStart := r.now()
		sp, err := ext.Extract(p.Input())
		if err != nil {
			var me *extract.MissingInputError
			if errors.As(err, &me) {
				r.reporter.Report(ir.Diagnostic{
					Kind:      ir.DiagMissingInput,
					Severity:  ir.SeverityWarn,
					ScanPoint: p.ID,
					Path:      me.Path,
					Message:   fmt.Sprintf("no %s file, skipping", me.Kind),
					Details:   map[string]string{"input": string(me.Kind)},
				})
				r.recorder.IncPointResult(metrics.PointSkipped)
				sum.Skipped = append(sum.Skipped, p.ID)
				continue
			}
			r.fail(p.ID, err)
			return nil, err
		}

		if err := agg.AddPoint(sp); err != nil {
			r.fail(p.ID, err)
			return nil, err
		}
		r.recorder.ObservePointDuration(r.now().Sub(pointStart))
		r.recorder.IncPointResult(metrics.PointAccepted)
		sum.Points++
	}

	table, err := agg.Finish()
	if err != nil {
		r.fail("", err)
		return nil, err
	}

	sum.Histograms = len(table.Histograms)
	for _, h := range table.Histograms {
		sum.Bins += len(h.Bins)
	}
	r.recorder.SetTableShape(sum.Histograms, sum.Bins, table.Columns())

	r.reporter.Report(ir.Diagnostic{
		Kind:     ir.DiagSummary,
		Severity: ir.SeverityInfo,
		Message:  "Num coeff variations: " + strconv.Itoa(table.Columns()),
		Details: map[string]string{
			"points":  strconv.Itoa(table.Columns()),
			"skipped": strconv.Itoa(len(sum.Skipped)),
		},
	})
	return table, nil
}

// fail reports the error that aborts the run.
func (r *Runner) fail(pointID string, err error) {
	if pointID != "" {
		r.recorder.IncPointResult(metrics.PointFailed)
	}
	r.reporter.Report(FatalDiagnostic(pointID, err))
}

// FatalDiagnostic converts an aborting error into a diagnostic, keeping the
// structured context of parse and consistency errors.
func FatalDiagnostic(pointID string, err error) ir.Diagnostic {
	if ce, ok := aggregate.AsConsistencyError(err); ok {
		return ce.Diagnostic()
	}

	d := ir.Diagnostic{
		Kind:      ir.DiagFatal,
		Severity:  ir.SeverityError,
		ScanPoint: pointID,
		Message:   err.Error(),
	}
	var pe *bundle.ParseError
	if errors.As(err, &pe) {
		d.Histogram = pe.Histogram
		d.Details = map[string]string{
			"code": string(pe.Code),
			"line": strconv.Itoa(pe.Line),
		}
		if pe.Field != "" {
			d.Details["field"] = pe.Field
		}
	}
	return d
}
