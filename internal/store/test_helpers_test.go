package store

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/roach88/yodascan/internal/ir"
	"github.com/roach88/yodascan/internal/testutil"
)

// createTestStore creates a store in a temp directory with deterministic
// run IDs and timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewDeterministicClock()
	s, err := Open(path,
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run")),
		WithClock(clock.Now),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTable returns a two-point table with one NaN cell.
func createTestTable() *ir.Table {
	return &ir.Table{
		Histograms: []ir.AggregatedHistogram{
			{
				Name:  "pT_yy",
				Title: "p_{T}^{#gamma#gamma}",
				Fills: 2,
				Bins: []ir.Bin{
					{Edges: ir.Edges{Low: 0, High: 50}, Values: []float64{1.25, 2.5}},
					{Edges: ir.Edges{Low: 50, High: 100}, Values: []float64{math.NaN(), 0.1}},
				},
			},
			{
				Name:  "N_j_30",
				Title: "N_{jets}",
				Fills: 2,
				Bins: []ir.Bin{
					{Edges: ir.Edges{Low: -0.5, High: 0.5}, Values: []float64{7, 8}},
				},
			},
		},
		Points: []ir.ParameterSet{
			{Point: "p1", Params: []ir.Parameter{{Name: "cHW", Value: "0.1"}, {Name: "cHB", Value: "0"}}},
			{Point: "p2", Params: []ir.Parameter{{Name: "cHW", Value: "0.2"}}},
		},
	}
}
