package render

import "github.com/roach88/yodascan/internal/ir"

// Y-axis padding factors. The padded range leaves the data filling 90% of
// the axis.
const (
	padOuter = 1.05556
	padInner = 0.05556
)

// Range is a closed y-axis range.
type Range struct {
	Min float64
	Max float64
}

// YRange returns the padded y range covering every value of h. A range
// whose raw minimum is positive is never padded below zero. ok is false
// when h holds no values.
func YRange(h *ir.AggregatedHistogram) (r Range, ok bool) {
	for _, b := range h.Bins {
		for _, v := range b.Values {
			if !ok {
				r = Range{Min: v, Max: v}
				ok = true
				continue
			}
			r.Min = min(r.Min, v)
			r.Max = max(r.Max, v)
		}
	}
	if !ok {
		return Range{}, false
	}

	positive := r.Min > 0
	r = Range{
		Min: padOuter*r.Min - padInner*r.Max,
		Max: padOuter*r.Max - padInner*r.Min,
	}
	if positive && r.Min < 0 {
		r.Min = 0
	}
	return r, true
}

// SeriesName names the series of one histogram at one scan point.
func SeriesName(histogram, point string) string {
	return histogram + ":" + point
}
