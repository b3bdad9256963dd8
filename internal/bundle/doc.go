// Package bundle parses histogram bundles: line-oriented text files holding
// zero or more one-dimensional histogram blocks.
//
// A block looks like:
//
//	BEGIN YODA_HISTO1D /HiggsDiff/pT_yy
//	Path=/HiggsDiff/pT_yy
//	Title=transverse momentum
//	# xlow  xhigh  sumw  sumw2 ...
//	0       50     1.23  ...
//	50      100    4.56  ...
//	END YODA_HISTO1D
//
// Parsing is a two-layer state machine. Classify recognizes structural
// markers in one line given the current Mode; Parser drives the modes
//
//	Outside -> (BlockStart) -> Preamble -> (bin header) -> Bins -> (BlockEnd) -> Outside
//
// and collects a HistogramOccurrence for every block whose name is tracked.
// Untracked blocks switch to Skip and are dropped on BlockEnd without their
// contents being parsed. A block opened inside a tracked block is an
// UNTERMINATED_BLOCK error.
//
// Only the first three fields of a data line are read (low edge, high edge,
// value); trailing columns such as sumw2 or numEntries are ignored.
package bundle
