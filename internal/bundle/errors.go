package bundle

import (
	"errors"
	"fmt"
)

// ParseErrorCode categorizes bundle parse failures.
type ParseErrorCode string

const (
	// ErrCodeMalformedBin indicates a data line field is not a number.
	ErrCodeMalformedBin ParseErrorCode = "MALFORMED_BIN"

	// ErrCodeShortBinLine indicates a data line has fewer than three fields.
	ErrCodeShortBinLine ParseErrorCode = "SHORT_BIN_LINE"

	// ErrCodeUnterminatedBlock indicates the stream ended, or another block
	// opened, inside a tracked block.
	ErrCodeUnterminatedBlock ParseErrorCode = "UNTERMINATED_BLOCK"
)

// ParseError is a fatal error in a bundle. It aborts the whole run.
type ParseError struct {
	Code ParseErrorCode

	// Histogram is the block being parsed.
	Histogram string

	// Line is the 1-based line number in the bundle.
	Line int

	// Text is the offending line.
	Text string

	// Field names the data column (xlow, xhigh, value) for MALFORMED_BIN.
	Field string

	// Err is the underlying strconv error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: line %d", e.Code, e.Line)
	if e.Histogram != "" {
		msg += fmt.Sprintf(" in %q", e.Histogram)
	}
	switch {
	case e.Field != "" && e.Err != nil:
		msg += fmt.Sprintf(": %s: %v", e.Field, e.Err)
	case e.Text != "":
		msg += fmt.Sprintf(": %q", e.Text)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
