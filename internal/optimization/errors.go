package optimization

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks configuration that cannot produce a valid run.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrObjective marks a failure reported by the user objective.
	ErrObjective = errors.New("objective evaluation failed")
	// ErrDegenerateWeights marks selection weights that cannot be normalized.
	ErrDegenerateWeights = errors.New("degenerate selection weights")
)

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch {
	case e.Component != "" && e.Op != "":
		prefix = e.Component + ": " + e.Op
	case e.Component != "":
		prefix = e.Component
	case e.Op != "":
		prefix = e.Op
	}

	msg := e.Message
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewErrorf creates a new optimization error with formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
	}
}

// ConfigErrorf reports an invalid setting. The result matches ErrInvalidConfig.
func ConfigErrorf(component, format string, args ...interface{}) *Error {
	return &Error{
		Message:   fmt.Sprintf(format, args...),
		Op:        "configure",
		Component: component,
		Err:       ErrInvalidConfig,
	}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// objectiveError keeps both the caller's error and ErrObjective reachable
// through errors.Is.
type objectiveError struct {
	point []float64
	err   error
}

func (e *objectiveError) Error() string {
	return fmt.Sprintf("%v at %v: %v", ErrObjective, e.point, e.err)
}

func (e *objectiveError) Unwrap() []error { return []error{ErrObjective, e.err} }

// IsOptimizationError checks if an error is of type Error.
func IsOptimizationError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
