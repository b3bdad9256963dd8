package aggregate

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/yodascan/internal/ir"
)

// ConsistencyCode categorizes consistency failures.
type ConsistencyCode string

const (
	// ErrCodeBinCountMismatch indicates an occurrence with a different number
	// of bins than the reference.
	ErrCodeBinCountMismatch ConsistencyCode = "BIN_COUNT_MISMATCH"

	// ErrCodeEdgeMismatch indicates a bin whose xlow or xhigh differs from the
	// reference.
	ErrCodeEdgeMismatch ConsistencyCode = "EDGE_MISMATCH"

	// ErrCodeDuplicateOccurrence indicates a second block for the same name
	// within one scan point.
	ErrCodeDuplicateOccurrence ConsistencyCode = "DUPLICATE_OCCURRENCE"

	// ErrCodeUnevenFillCounts indicates histograms filled a different number
	// of times across the scan.
	ErrCodeUnevenFillCounts ConsistencyCode = "UNEVEN_FILL_COUNTS"

	// ErrCodeColumnCountMismatch indicates fill counts that agree with each
	// other but not with the number of scan points.
	ErrCodeColumnCountMismatch ConsistencyCode = "COLUMN_COUNT_MISMATCH"

	// ErrCodeMissingHistogram indicates a tracked histogram absent from a scan
	// point (strict mode only).
	ErrCodeMissingHistogram ConsistencyCode = "MISSING_HISTOGRAM"

	// ErrCodeOutOfOrder indicates an ingest for a scan point earlier than one
	// already ingested.
	ErrCodeOutOfOrder ConsistencyCode = "OUT_OF_ORDER"

	// ErrCodeColumnGap indicates an ingest that skips past the next column.
	ErrCodeColumnGap ConsistencyCode = "COLUMN_GAP"
)

// ConsistencyError is a fatal aggregation failure.
type ConsistencyError struct {
	Code ConsistencyCode

	// Histogram is the offending histogram.
	Histogram string

	// ScanPoint is the offending point, if the failure is tied to one.
	ScanPoint string

	// Expected and Actual carry counts: bins for BIN_COUNT_MISMATCH, fills for
	// UNEVEN_FILL_COUNTS and COLUMN_COUNT_MISMATCH, point indexes for
	// OUT_OF_ORDER and COLUMN_GAP.
	Expected int
	Actual   int

	// Bin, Edge, ExpectedEdge and ActualEdge describe an EDGE_MISMATCH.
	Bin          int
	Edge         string
	ExpectedEdge float64
	ActualEdge   float64
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	var msg string
	switch e.Code {
	case ErrCodeBinCountMismatch:
		msg = fmt.Sprintf("%d bins instead of %d", e.Actual, e.Expected)
	case ErrCodeEdgeMismatch:
		msg = fmt.Sprintf("bin %d %s is %s instead of %s",
			e.Bin, e.Edge, ir.FormatFloat(e.ActualEdge), ir.FormatFloat(e.ExpectedEdge))
	case ErrCodeDuplicateOccurrence:
		msg = "multiple histograms with this name in one scan point"
	case ErrCodeUnevenFillCounts:
		msg = fmt.Sprintf("filled a different number of times: %d instead of %d", e.Actual, e.Expected)
	case ErrCodeColumnCountMismatch:
		msg = fmt.Sprintf("filled %d times for %d scan points", e.Actual, e.Expected)
	case ErrCodeMissingHistogram:
		msg = "not found in scan point"
	case ErrCodeOutOfOrder:
		msg = fmt.Sprintf("scan point index %d after %d", e.Actual, e.Expected)
	case ErrCodeColumnGap:
		msg = fmt.Sprintf("scan point index %d skips column %d", e.Actual, e.Expected)
	default:
		msg = "inconsistent"
	}

	if e.ScanPoint != "" {
		return fmt.Sprintf("%s: %q: %s (point=%s)", e.Code, e.Histogram, msg, e.ScanPoint)
	}
	return fmt.Sprintf("%s: %q: %s", e.Code, e.Histogram, msg)
}

// Diagnostic converts the error into structured diagnostic data.
func (e *ConsistencyError) Diagnostic() ir.Diagnostic {
	d := ir.Diagnostic{
		Kind:      ir.DiagFatal,
		Severity:  ir.SeverityError,
		ScanPoint: e.ScanPoint,
		Histogram: e.Histogram,
		Message:   e.Error(),
		Details:   map[string]string{"code": string(e.Code)},
	}
	switch e.Code {
	case ErrCodeEdgeMismatch:
		d.Details["bin"] = strconv.Itoa(e.Bin)
		d.Details["edge"] = e.Edge
		d.Details["expected"] = ir.FormatFloat(e.ExpectedEdge)
		d.Details["actual"] = ir.FormatFloat(e.ActualEdge)
	case ErrCodeDuplicateOccurrence, ErrCodeMissingHistogram:
	default:
		d.Details["expected"] = strconv.Itoa(e.Expected)
		d.Details["actual"] = strconv.Itoa(e.Actual)
	}
	return d
}

// AsConsistencyError extracts a ConsistencyError from err.
func AsConsistencyError(err error) (*ConsistencyError, bool) {
	var ce *ConsistencyError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsBinCountMismatch returns true if err is a BIN_COUNT_MISMATCH.
func IsBinCountMismatch(err error) bool { return hasCode(err, ErrCodeBinCountMismatch) }

// IsEdgeMismatch returns true if err is an EDGE_MISMATCH.
func IsEdgeMismatch(err error) bool { return hasCode(err, ErrCodeEdgeMismatch) }

// IsDuplicateOccurrence returns true if err is a DUPLICATE_OCCURRENCE.
func IsDuplicateOccurrence(err error) bool { return hasCode(err, ErrCodeDuplicateOccurrence) }

// IsUnevenFillCounts returns true if err is an UNEVEN_FILL_COUNTS.
func IsUnevenFillCounts(err error) bool { return hasCode(err, ErrCodeUnevenFillCounts) }

func hasCode(err error, code ConsistencyCode) bool {
	ce, ok := AsConsistencyError(err)
	return ok && ce.Code == code
}
