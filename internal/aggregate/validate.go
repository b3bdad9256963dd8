package aggregate

import "github.com/roach88/yodascan/internal/ir"

// ValidateFillCounts checks that every histogram was filled the same number
// of times. The first histogram is the reference; the first one that differs
// is reported.
func ValidateFillCounts(hists []ir.AggregatedHistogram) error {
	if len(hists) == 0 {
		return nil
	}

	expected := hists[0].Fills
	for _, h := range hists[1:] {
		if h.Fills != expected {
			return &ConsistencyError{
				Code:      ErrCodeUnevenFillCounts,
				Histogram: h.Name,
				Expected:  expected,
				Actual:    h.Fills,
			}
		}
	}
	return nil
}

// ValidateColumns checks that the (already even) fill count equals the
// number of scan points, so column i of every bin belongs to point i.
func ValidateColumns(hists []ir.AggregatedHistogram, points int) error {
	if len(hists) == 0 || hists[0].Fills == points {
		return nil
	}
	return &ConsistencyError{
		Code:      ErrCodeColumnCountMismatch,
		Histogram: hists[0].Name,
		Expected:  points,
		Actual:    hists[0].Fills,
	}
}
