package aggregate

import (
	"errors"

	"github.com/roach88/yodascan/internal/ir"
)

// ErrFinished is returned when the aggregator is used after Finish.
var ErrFinished = errors.New("aggregator already finished")

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithStrict makes a tracked histogram missing from any scan point a fatal
// MISSING_HISTOGRAM error at AddPoint, instead of surfacing later as uneven
// fill counts.
func WithStrict(strict bool) Option {
	return func(a *Aggregator) {
		a.strict = strict
	}
}

// entry is the running state for one tracked histogram.
type entry struct {
	hist ir.AggregatedHistogram
	// lastPoint is the index of the last scan point that contributed a
	// column, or -1.
	lastPoint int
}

// Aggregator builds the table. It is not safe for concurrent use; callers
// that extract points concurrently must still add them in scan-point order.
type Aggregator struct {
	tracked  ir.TrackedSet
	entries  []entry
	points   []ir.ParameterSet
	strict   bool
	finished bool
}

// New creates an aggregator for the tracked names, in their caller order.
func New(tracked ir.TrackedSet, opts ...Option) *Aggregator {
	a := &Aggregator{
		tracked: tracked,
		entries: make([]entry, tracked.Len()),
	}
	for i, name := range tracked.Names() {
		a.entries[i] = entry{
			hist:      ir.AggregatedHistogram{Name: name},
			lastPoint: -1,
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Points returns the number of columns opened so far.
func (a *Aggregator) Points() int {
	return len(a.points)
}

// Ingest folds one occurrence into the table as the column for pointIndex.
//
// Occurrences with untracked names are ignored. pointIndex is either the
// current column or the next one, which it opens; any other index is an
// OUT_OF_ORDER or COLUMN_GAP error. A second occurrence of the same name for
// the same pointIndex is a DUPLICATE_OCCURRENCE. pointID names the column's
// scan point until AddPoint sets its parameters.
func (a *Aggregator) Ingest(pointIndex int, pointID string, occ ir.HistogramOccurrence) error {
	if a.finished {
		return ErrFinished
	}

	i := a.tracked.Index(occ.Name)
	if i < 0 {
		return nil
	}
	e := &a.entries[i]

	cols := len(a.points)
	switch {
	case pointIndex > cols:
		return &ConsistencyError{
			Code:      ErrCodeColumnGap,
			Histogram: occ.Name,
			ScanPoint: pointID,
			Expected:  cols,
			Actual:    pointIndex,
		}
	case pointIndex < 0, pointIndex < cols-1, pointIndex < e.lastPoint:
		return &ConsistencyError{
			Code:      ErrCodeOutOfOrder,
			Histogram: occ.Name,
			ScanPoint: pointID,
			Expected:  cols - 1,
			Actual:    pointIndex,
		}
	case pointIndex == e.lastPoint:
		return &ConsistencyError{
			Code:      ErrCodeDuplicateOccurrence,
			Histogram: occ.Name,
			ScanPoint: pointID,
		}
	}

	if !e.hist.Established() {
		e.hist.Title = occ.Title
		e.hist.Bins = make([]ir.Bin, len(occ.Bins))
		for b, ob := range occ.Bins {
			e.hist.Bins[b] = ir.Bin{Edges: ob.Edges, Values: []float64{ob.Value}}
		}
		e.hist.Fills = 1
		e.lastPoint = pointIndex
		a.openColumn(pointIndex, pointID)
		return nil
	}

	if err := checkBinning(&e.hist, pointID, occ); err != nil {
		return err
	}

	for b, ob := range occ.Bins {
		e.hist.Bins[b].Values = append(e.hist.Bins[b].Values, ob.Value)
	}
	e.hist.Fills++
	e.lastPoint = pointIndex
	a.openColumn(pointIndex, pointID)
	return nil
}

// openColumn records the scan point of a column the first time it is filled.
func (a *Aggregator) openColumn(pointIndex int, pointID string) {
	if pointIndex == len(a.points) {
		a.points = append(a.points, ir.ParameterSet{Point: pointID})
	}
}

// checkBinning compares an occurrence against the reference binning. The
// bin count is compared before any bin is indexed.
func checkBinning(ref *ir.AggregatedHistogram, pointID string, occ ir.HistogramOccurrence) error {
	if len(occ.Bins) != len(ref.Bins) {
		return &ConsistencyError{
			Code:      ErrCodeBinCountMismatch,
			Histogram: occ.Name,
			ScanPoint: pointID,
			Expected:  len(ref.Bins),
			Actual:    len(occ.Bins),
		}
	}

	for b, ob := range occ.Bins {
		want := ref.Bins[b].Edges
		switch {
		case ob.Low != want.Low:
			return edgeMismatch(occ.Name, pointID, b, "xlow", want.Low, ob.Low)
		case ob.High != want.High:
			return edgeMismatch(occ.Name, pointID, b, "xhigh", want.High, ob.High)
		}
	}
	return nil
}

func edgeMismatch(name, pointID string, bin int, edge string, want, got float64) error {
	return &ConsistencyError{
		Code:         ErrCodeEdgeMismatch,
		Histogram:    name,
		ScanPoint:    pointID,
		Bin:          bin,
		Edge:         edge,
		ExpectedEdge: want,
		ActualEdge:   got,
	}
}

// AddPoint ingests every occurrence of an extracted scan point as the next
// column and records its parameter set.
func (a *Aggregator) AddPoint(p *ir.ScanPoint) error {
	if a.finished {
		return ErrFinished
	}

	idx := len(a.points)
	for _, occ := range p.Occurrences {
		if err := a.Ingest(idx, p.ID, occ); err != nil {
			return err
		}
	}

	if a.strict {
		for _, e := range a.entries {
			if e.lastPoint != idx {
				return &ConsistencyError{
					Code:      ErrCodeMissingHistogram,
					Histogram: e.hist.Name,
					ScanPoint: p.ID,
				}
			}
		}
	}

	params := p.Params
	params.Point = p.ID
	if idx == len(a.points) {
		a.points = append(a.points, params)
	} else {
		a.points[idx] = params
	}
	return nil
}

// Finish runs the scan validator and returns the finished table. The
// aggregator cannot be used afterwards. On error the table must not be used.
func (a *Aggregator) Finish() (*ir.Table, error) {
	if a.finished {
		return nil, ErrFinished
	}
	a.finished = true

	hists := make([]ir.AggregatedHistogram, len(a.entries))
	for i, e := range a.entries {
		hists[i] = e.hist
	}

	if err := ValidateFillCounts(hists); err != nil {
		return nil, err
	}
	if err := ValidateColumns(hists, len(a.points)); err != nil {
		return nil, err
	}

	return &ir.Table{Histograms: hists, Points: a.points}, nil
}
