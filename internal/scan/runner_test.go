package scan

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yodascan/internal/aggregate"
	"github.com/roach88/yodascan/internal/bundle"
	"github.com/roach88/yodascan/internal/ir"
	"github.com/roach88/yodascan/internal/metrics"
	"github.com/roach88/yodascan/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecorder struct {
	mu       sync.Mutex
	points   map[metrics.PointResult]int
	outcomes map[metrics.Outcome]int
	shape    [3]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		points:   make(map[metrics.PointResult]int),
		outcomes: make(map[metrics.Outcome]int),
	}
}

func (f *fakeRecorder) ObservePointDuration(time.Duration) {}
func (f *fakeRecorder) ObserveRunDuration(time.Duration)   {}

func (f *fakeRecorder) IncPointResult(r metrics.PointResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[r]++
}

func (f *fakeRecorder) IncRunOutcome(o metrics.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[o]++
}

func (f *fakeRecorder) SetTableShape(h, b, c int) {
	f.shape = [3]int{h, b, c}
}

func pointBundle(v float64) *string {
	return testutil.Ptr(
		testutil.Block("pT_yy", "transverse momentum",
			testutil.BinRow{0, 50, v}, testutil.BinRow{50, 100, 10 * v}) +
			testutil.Block("N_j_30", "jets", testutil.BinRow{-0.5, 0.5, v}) +
			testutil.Block("untracked", "noise", testutil.BinRow{0, 1, 99}))
}

func newTestRunner(root string, rep Reporter, rec metrics.Recorder, opts ...RunnerOption) *Runner {
	base := []RunnerOption{
		WithReporter(rep),
		WithRecorder(rec),
		WithLogger(quietLogger()),
		WithClock(testutil.NewDeterministicClock().Now),
	}
	return NewRunner(root, ir.NewTrackedSet("pT_yy", "N_j_30"), append(base, opts...)...)
}

func TestRunBuildsTable(t *testing.T) {
	root := t.TempDir()
	testutil.WriteScan(t, root,
		testutil.ScanPoint{ID: "p2", Params: testutil.Ptr(testutil.Params("cHW", "0.2")), Bundle: pointBundle(2)},
		testutil.ScanPoint{ID: "p1", Params: testutil.Ptr(testutil.Params("cHW", "0.1")), Bundle: pointBundle(1)},
		testutil.ScanPoint{ID: "p3", Params: testutil.Ptr(testutil.Params("cHW", "0.3")), Bundle: pointBundle(3)},
	)

	rep := &CollectingReporter{}
	rec := newFakeRecorder()
	table, sum, err := newTestRunner(root, rep, rec).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"pT_yy", "N_j_30"}, table.Names())
	require.Equal(t, 3, table.Columns())
	assert.Equal(t, "p1", table.Points[0].Point)
	assert.Equal(t, "cHW=0.3", table.Points[2].Title())

	pt, _ := table.Histogram("pT_yy")
	assert.Equal(t, []float64{1, 2, 3}, pt.Bins[0].Values)
	assert.Equal(t, []float64{10, 20, 30}, pt.Bins[1].Values)

	assert.Equal(t, root, sum.Root)
	assert.Equal(t, 3, sum.Discovered)
	assert.Equal(t, 3, sum.Points)
	assert.Empty(t, sum.Skipped)
	assert.Equal(t, 2, sum.Histograms)
	assert.Equal(t, 3, sum.Bins)
	assert.Positive(t, sum.Duration)

	assert.Len(t, rep.OfKind(ir.DiagPointStarted), 3)
	summary := rep.OfKind(ir.DiagSummary)
	require.Len(t, summary, 1)
	assert.Equal(t, "Num coeff variations: 3", summary[0].Message)

	assert.Equal(t, 3, rec.points[metrics.PointAccepted])
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeSuccess])
	assert.Equal(t, [3]int{2, 3, 3}, rec.shape)
}

func TestRunSkipsPointMissingInput(t *testing.T) {
	root := t.TempDir()
	params := testutil.Ptr(testutil.Params("c", "1"))
	testutil.WriteScan(t, root,
		testutil.ScanPoint{ID: "a", Params: params, Bundle: pointBundle(1)},
		testutil.ScanPoint{ID: "b", Bundle: pointBundle(2)},
		testutil.ScanPoint{ID: "c", Params: params},
		testutil.ScanPoint{ID: "d", Params: params, Bundle: pointBundle(4)},
	)

	rep := &CollectingReporter{}
	rec := newFakeRecorder()
	table, sum, err := newTestRunner(root, rep, rec).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, table.Columns())
	assert.Equal(t, "a", table.Points[0].Point)
	assert.Equal(t, "d", table.Points[1].Point)
	for _, h := range table.Histograms {
		assert.Equal(t, 2, h.Fills)
		for _, b := range h.Bins {
			assert.Len(t, b.Values, 2)
		}
	}
	pt, _ := table.Histogram("pT_yy")
	assert.Equal(t, []float64{1, 4}, pt.Bins[0].Values)

	assert.Equal(t, []string{"b", "c"}, sum.Skipped)
	assert.Equal(t, 4, sum.Discovered)
	assert.Equal(t, 2, sum.Points)

	missing := rep.OfKind(ir.DiagMissingInput)
	require.Len(t, missing, 2)
	assert.Equal(t, ir.SeverityWarn, missing[0].Severity)
	assert.Equal(t, "b", missing[0].ScanPoint)
	assert.Equal(t, "params", missing[0].Details["input"])
	assert.Equal(t, "bundle", missing[1].Details["input"])

	assert.Equal(t, 2, rec.points[metrics.PointSkipped])
	assert.Equal(t, 2, rec.points[metrics.PointAccepted])
}

func TestRunBinCountMismatchAborts(t *testing.T) {
	root := t.TempDir()
	params := testutil.Ptr(testutil.Params("c", "1"))
	testutil.WriteScan(t, root,
		testutil.ScanPoint{ID: "a", Params: params, Bundle: pointBundle(1)},
		testutil.ScanPoint{ID: "b", Params: params, Bundle: testutil.Ptr(
			testutil.Block("pT_yy", "t", testutil.BinRow{0, 50, 1}) +
				testutil.Block("N_j_30", "jets", testutil.BinRow{-0.5, 0.5, 1}))},
	)

	rep := &CollectingReporter{}
	rec := newFakeRecorder()
	table, sum, err := newTestRunner(root, rep, rec).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, aggregate.IsBinCountMismatch(err))
	assert.Equal(t, 1, sum.Points)

	fatal := rep.OfKind(ir.DiagFatal)
	require.Len(t, fatal, 1)
	assert.Equal(t, "pT_yy", fatal[0].Histogram)
	assert.Equal(t, "b", fatal[0].ScanPoint)
	assert.Equal(t, "2", fatal[0].Details["expected"])
	assert.Equal(t, "1", fatal[0].Details["actual"])
	assert.Empty(t, rep.OfKind(ir.DiagSummary))

	assert.Equal(t, 1, rec.points[metrics.PointFailed])
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeFailed])
}

func TestRunParseErrorAborts(t *testing.T) {
	root := t.TempDir()
	testutil.WriteScan(t, root, testutil.ScanPoint{
		ID:     "a",
		Params: testutil.Ptr(testutil.Params("c", "1")),
		Bundle: testutil.Ptr("BEGIN YODA_HISTO1D /HiggsDiff/pT_yy\n# xlow\n0 fifty 1\nEND YODA_HISTO1D\n"),
	})

	rep := &CollectingReporter{}
	_, _, err := newTestRunner(root, rep, newFakeRecorder()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, bundle.IsParseError(err))

	fatal := rep.OfKind(ir.DiagFatal)
	require.Len(t, fatal, 1)
	assert.Equal(t, "a", fatal[0].ScanPoint)
	assert.Equal(t, "pT_yy", fatal[0].Histogram)
	assert.Equal(t, "MALFORMED_BIN", fatal[0].Details["code"])
	assert.Equal(t, "3", fatal[0].Details["line"])
	assert.Equal(t, "xhigh", fatal[0].Details["field"])
}

func TestRunUnevenFillCounts(t *testing.T) {
	root := t.TempDir()
	params := testutil.Ptr(testutil.Params("c", "1"))
	onlyPT := testutil.Ptr(testutil.Block("pT_yy", "t", testutil.BinRow{0, 50, 1}, testutil.BinRow{50, 100, 1}))
	testutil.WriteScan(t, root,
		testutil.ScanPoint{ID: "a", Params: params, Bundle: pointBundle(1)},
		testutil.ScanPoint{ID: "b", Params: params, Bundle: onlyPT},
	)

	t.Run("lenient", func(t *testing.T) {
		rep := &CollectingReporter{}
		_, _, err := newTestRunner(root, rep, newFakeRecorder()).Run(context.Background())
		require.Error(t, err)
		assert.True(t, aggregate.IsUnevenFillCounts(err))

		fatal := rep.OfKind(ir.DiagFatal)
		require.Len(t, fatal, 1)
		assert.Equal(t, "N_j_30", fatal[0].Histogram)
		assert.Empty(t, fatal[0].ScanPoint)
	})

	t.Run("strict", func(t *testing.T) {
		rep := &CollectingReporter{}
		_, _, err := newTestRunner(root, rep, newFakeRecorder(), WithStrict(true)).Run(context.Background())
		ce, ok := aggregate.AsConsistencyError(err)
		require.True(t, ok)
		assert.Equal(t, aggregate.ErrCodeMissingHistogram, ce.Code)
		assert.Equal(t, "N_j_30", ce.Histogram)
		assert.Equal(t, "b", ce.ScanPoint)
	})
}

func TestRunPatternsAndLayout(t *testing.T) {
	root := t.TempDir()
	params := testutil.Ptr(testutil.Params("c", "1"))
	testutil.WriteScan(t, root,
		testutil.ScanPoint{ID: "keep_1", Params: params, Bundle: pointBundle(1)},
		testutil.ScanPoint{ID: "keep_2", Params: params, Bundle: pointBundle(2)},
		testutil.ScanPoint{ID: "broken", Params: params, Bundle: testutil.Ptr("BEGIN YODA_HISTO1D /x/pT_yy\n")},
	)

	table, sum, err := newTestRunner(root, &CollectingReporter{}, newFakeRecorder(),
		WithPatterns([]string{"keep_*", "broken"}, []string{"broken"}),
		WithLayout(DefaultLayout),
	).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Columns())
	assert.Equal(t, 2, sum.Discovered)
}

func TestRunEmptyScan(t *testing.T) {
	table, sum, err := newTestRunner(t.TempDir(), &CollectingReporter{}, newFakeRecorder()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Columns())
	assert.Equal(t, 0, sum.Points)
}

func TestRunMissingRoot(t *testing.T) {
	rec := newFakeRecorder()
	_, sum, err := newTestRunner(t.TempDir()+"/nope", &CollectingReporter{}, rec).Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeFailed])
}

func TestRunCanceled(t *testing.T) {
	root := t.TempDir()
	testutil.WriteScan(t, root, testutil.ScanPoint{
		ID: "a", Params: testutil.Ptr(testutil.Params("c", "1")), Bundle: pointBundle(1),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := newFakeRecorder()
	table, _, err := newTestRunner(root, &CollectingReporter{}, rec).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, table)
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeCanceled])
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner("root", ir.NewTrackedSet("a"))
	assert.Equal(t, DefaultLayout, r.layout)
	assert.IsType(t, metrics.NoopRecorder{}, r.recorder)
	assert.IsType(t, &SlogReporter{}, r.reporter)
	assert.NotNil(t, r.logger)
}

func TestSlogReporter(t *testing.T) {
	var buf bytes.Buffer
	rep := NewSlogReporter(slog.New(slog.NewTextHandler(&buf, nil)))

	rep.Report(ir.Diagnostic{
		Kind:      ir.DiagMissingInput,
		Severity:  ir.SeverityWarn,
		ScanPoint: "p1",
		Path:      "/scan/p1/param.dat",
		Message:   "no params file, skipping",
		Details:   map[string]string{"input": "params"},
	})
	rep.Report(ir.Diagnostic{
		Kind:      ir.DiagFatal,
		Severity:  ir.SeverityError,
		Histogram: "pT_yy",
		Message:   "boom",
	})

	out := buf.String()
	assert.Contains(t, out, `level=WARN msg="no params file, skipping" kind=MISSING_INPUT point=p1 path=/scan/p1/param.dat input=params`)
	assert.Contains(t, out, "level=ERROR msg=boom kind=FATAL histogram=pT_yy")
}

func TestMultiReporter(t *testing.T) {
	a, b := &CollectingReporter{}, &CollectingReporter{}
	MultiReporter(a, b).Report(ir.Diagnostic{Kind: ir.DiagSummary})
	assert.Len(t, a.Diagnostics(), 1)
	assert.Len(t, b.Diagnostics(), 1)
}
