package filter

import (
	"errors"
	"fmt"
)

// ErrUnknownPreset is returned when a named filter is not registered
var ErrUnknownPreset = errors.New("unknown filter preset")

// Error types for filter operations
type (
	// CompilationError indicates a filter expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates a filter could not be evaluated against a record
	EvaluationError struct {
		Expression string
		RecordID   string
		Reason     string
		Err        error
	}
)

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("evaluation error for filter '%s': %s", e.Expression, e.Reason)
	}
	return fmt.Sprintf("evaluation error for filter '%s' on record %s: %s", e.Expression, e.RecordID, e.Reason)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
