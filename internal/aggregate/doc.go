// Package aggregate folds per-point extractions into a validated table.
//
// The Aggregator keeps one AggregatedHistogram per tracked name. The first
// occurrence of a name establishes its reference binning (bin count and the
// exact (xlow, xhigh) of every bin); every later occurrence must match it
// exactly and contributes one more value column. The reference state lives in
// the histogram entry itself: a histogram with Fills > 0 is established.
//
// Checks are made before any column is appended, so a rejected occurrence
// never leaves a partial column behind. All consistency failures are fatal
// for the run and are reported as *ConsistencyError.
//
// After the last point, Finish runs the scan validator: every tracked
// histogram must have been filled the same number of times, and that number
// must equal the number of points added.
package aggregate
