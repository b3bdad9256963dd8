package extract

import (
	"errors"
	"fmt"
)

// InputKind names which of a scan point's two input files is meant.
type InputKind string

const (
	InputParams InputKind = "params"
	InputBundle InputKind = "bundle"
)

// MissingInputError reports a scan point lacking a required input file.
// It is recoverable: the point is skipped and the scan continues.
type MissingInputError struct {
	ScanPoint string
	Kind      InputKind
	Path      string
}

// Error implements the error interface.
func (e *MissingInputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("scan point %s: no %s file", e.ScanPoint, e.Kind)
	}
	return fmt.Sprintf("scan point %s: no %s file %s", e.ScanPoint, e.Kind, e.Path)
}

// IsMissingInput returns true if err is or wraps a MissingInputError.
func IsMissingInput(err error) bool {
	var me *MissingInputError
	return errors.As(err, &me)
}
