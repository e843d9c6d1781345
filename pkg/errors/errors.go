// Package errors provides the error types used throughout tsgo.
//
// The package defines typed errors for the common failure modes of
// statistical estimators (dimension mismatches, unfitted models, invalid
// values) together with a small set of sentinel errors that callers can
// match with errors.Is. Wrapping helpers (New, Newf, Wrap, Wrapf) are
// re-exported from cockroachdb/errors so most packages only need a single
// errors import.
//
// All error strings are prefixed with "tsgo: " to make the origin obvious
// in mixed logs.
package errors

import (
	"fmt"

	cockroach "github.com/cockroachdb/errors"
)

// Sentinel errors for common failure conditions. Match with errors.Is.
var (
	// ErrEmptyData indicates that an operation received no data.
	ErrEmptyData = cockroach.New("empty data")

	// ErrInsufficientData indicates that a series is too short for the
	// requested estimation.
	ErrInsufficientData = cockroach.New("insufficient data")

	// ErrNotFitted indicates that an estimator was used before Fit.
	ErrNotFitted = cockroach.New("model not fitted")

	// ErrSingularMatrix indicates a matrix inversion failure.
	ErrSingularMatrix = cockroach.New("singular matrix")

	// ErrNotImplemented indicates a recognized but unsupported option.
	ErrNotImplemented = cockroach.New("not implemented")
)

// ModelError is the general error type for estimator operations. It carries
// the operation name, a short message and an optional underlying cause that
// takes part in errors.Is/As chains.
type ModelError struct {
	Op      string
	Message string
	Cause   error
}

// NewModelError creates a ModelError for the given operation. cause may be
// nil or one of the package sentinels.
func NewModelError(op, message string, cause error) *ModelError {
	return &ModelError{Op: op, Message: message, Cause: cause}
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tsgo: %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("tsgo: %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ModelError) Unwrap() error { return e.Cause }

// DimensionError indicates mismatched data dimensions. Axis 0 is rows
// (samples), axis 1 is columns (features).
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("tsgo: %s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// NotFittedError indicates that a method requiring a fitted model was
// called on an unfitted one.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError for the given model and method.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tsgo: %s.%s: model is not fitted, call Fit first",
		e.ModelName, e.Method)
}

// Is reports ErrNotFitted so callers can match the condition without the
// concrete type.
func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }

// ValueError indicates an invalid input value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tsgo: %s: %s", e.Op, e.Message)
}

// ValidationError indicates an invalid configuration or parameter value.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tsgo: invalid %s: %s (got %v)", e.Field, e.Message, e.Value)
}

// Recover converts a panic in numerical code into an error. Use as
//
//	defer errors.Recover(&err, "Model.Fit")
//
// so that index and matrix panics surface as ordinary errors instead of
// crashing the caller.
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		*err = NewModelError(op, fmt.Sprintf("panic recovered: %v", r), nil)
	}
}

// New returns an error with the supplied message and a captured stack trace.
func New(msg string) error { return cockroach.New(msg) }

// Newf formats an error like fmt.Errorf and captures a stack trace.
func Newf(format string, args ...interface{}) error {
	return cockroach.Newf(format, args...)
}

// Wrap annotates err with a message, preserving the chain for errors.Is/As.
func Wrap(err error, msg string) error { return cockroach.Wrap(err, msg) }

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return cockroach.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return cockroach.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return cockroach.As(err, target) }
