package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/yodascan/internal/aggregate"
	"github.com/roach88/yodascan/internal/bundle"
	"github.com/roach88/yodascan/internal/config"
	"github.com/roach88/yodascan/internal/ir"
	"github.com/roach88/yodascan/internal/render"
	"github.com/roach88/yodascan/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scan failure (parse error, inconsistent binning, uneven fills, tampered run)
	ExitCommandError = 2 // Command error (bad paths, bad config, unknown run)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode returns the machine-readable code carried by err, or "E_COMMAND"
// when err has none.
func ErrorCode(err error) string {
	if ce, ok := aggregate.AsConsistencyError(err); ok {
		return string(ce.Code)
	}
	var pe *bundle.ParseError
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	if config.IsConfigError(err) {
		return config.ErrorCode(err)
	}
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		return "RUN_NOT_FOUND"
	case errors.Is(err, store.ErrDigestMismatch):
		return "DIGEST_MISMATCH"
	case errors.Is(err, render.ErrUnsupportedFormat):
		return "UNSUPPORTED_FORMAT"
	}
	return "E_COMMAND"
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Diagnostic *ir.Diagnostic `json:"diagnostic,omitempty"`
	Details    any            `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
// In text mode data is printed with its String form.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Failure outputs a scan failure with its diagnostic.
func (f *OutputFormatter) Failure(err error, d ir.Diagnostic) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:       ErrorCode(err),
				Message:    err.Error(),
				Diagnostic: &d,
			},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", ErrorCode(err), d.String())
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
