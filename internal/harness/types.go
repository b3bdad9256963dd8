package harness

import (
	"github.com/roach88/yodascan/internal/ir"
	"github.com/roach88/yodascan/internal/scan"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: the expect clause and every
	// assertion held.
	Pass bool `json:"pass"`

	// Table is the finished table, nil if the scan failed.
	Table *ir.Table `json:"table,omitempty"`

	// Summary describes the run.
	Summary *scan.Summary `json:"summary,omitempty"`

	// Err is the error that aborted the scan.
	Err error `json:"-"`

	// Diagnostics holds every diagnostic in emission order, with paths
	// removed.
	Diagnostics []ir.Diagnostic `json:"diagnostics"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Diagnostics: []ir.Diagnostic{},
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
