package config

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes for configuration failures.
const (
	ErrCodeRead       = "CONFIG_READ"
	ErrCodeFormat     = "CONFIG_FORMAT"
	ErrCodeSyntax     = "CONFIG_SYNTAX"
	ErrCodeSchema     = "CONFIG_SCHEMA"
	ErrCodeEnv        = "CONFIG_ENV"
	ErrCodeInvalid    = "CONFIG_INVALID"
	ErrCodeBadPattern = "CONFIG_BAD_PATTERN"
)

// Error is a configuration failure. Pos is set for CUE files when the
// evaluator reports a position.
type Error struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if err is or wraps a config Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// ErrorCode returns the code of a config Error, or "".
func ErrorCode(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
