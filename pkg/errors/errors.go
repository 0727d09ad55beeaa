package errors

import (
	"errors"
	"fmt"
)

// Kind classifies where in the run an error originated. The runner uses it
// to decide whether a failure is fatal (source), per-record (data quality),
// or degrades the run to partial success (sink).
type Kind string

const (
	KindConfig      Kind = "config"
	KindSource      Kind = "source"
	KindDataQuality Kind = "data_quality"
	KindSink        Kind = "sink"
)

// Standard error types
var (
	ErrSourceUnavailable = errors.New("data source unavailable")
	ErrNoData            = errors.New("no data returned")
	ErrSinkFailed        = errors.New("notification sink failed")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// RunError represents an error with run-stage context
type RunError struct {
	Err     error
	Kind    Kind
	Stage   string
	Message string
}

// Error implements the error interface
func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap returns the wrapped error
func (e *RunError) Unwrap() error {
	return e.Err
}

// Wrap wraps an error with a kind and stage
func Wrap(err error, kind Kind, stage, message string) *RunError {
	return &RunError{
		Err:     err,
		Kind:    kind,
		Stage:   stage,
		Message: message,
	}
}

// SourceFailure marks a fatal data-source error; no alerts can be computed.
func SourceFailure(err error, stage, message string) *RunError {
	return &RunError{
		Err:     fmt.Errorf("%w: %w", ErrSourceUnavailable, err),
		Kind:    KindSource,
		Stage:   stage,
		Message: message,
	}
}

// SinkFailure marks a delivery error; the other sink still runs.
func SinkFailure(err error, stage, message string) *RunError {
	return &RunError{
		Err:     fmt.Errorf("%w: %w", ErrSinkFailed, err),
		Kind:    KindSink,
		Stage:   stage,
		Message: message,
	}
}

// ConfigInvalid marks a configuration error detected before any I/O.
func ConfigInvalid(stage, message string) *RunError {
	return &RunError{
		Err:     ErrInvalidConfig,
		Kind:    KindConfig,
		Stage:   stage,
		Message: message,
	}
}

// KindOf returns the Kind of err if it is a RunError, empty Kind otherwise.
func KindOf(err error) Kind {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind
	}
	return ""
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
