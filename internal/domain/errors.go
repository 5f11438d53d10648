package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when code or language is absent.
	ErrMissingField = errors.New("missing code or language")

	// ErrUnsupportedLanguage is returned for tags not in the config table.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrPayloadTooLarge is returned when the source code exceeds the size limit.
	ErrPayloadTooLarge = errors.New("source code payload exceeds maximum size")

	// ErrTimeout is returned when an execution exceeds its wall-clock deadline.
	ErrTimeout = errors.New("execution timed out")
)

// StagingError wraps a filesystem failure while preparing the working files.
type StagingError struct {
	Op  string // "cleanup" or "write"
	Err error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s failed: %v", e.Op, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// CompileError carries the compiler's accumulated stderr. The run step
// never happens when compilation fails.
type CompileError struct {
	Diagnostics string
}

func (e *CompileError) Error() string {
	return "compilation failed: " + e.Diagnostics
}

// SpawnError means a compile or run command could not be started at all,
// e.g. the interpreter binary is missing from the host.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return "failed to start process: " + e.Err.Error()
}

func (e *SpawnError) Unwrap() error { return e.Err }
