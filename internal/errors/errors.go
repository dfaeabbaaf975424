package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess        = 0   // Indicates successful execution.
	ExitErrorGeneric   = 1   // Indicates a generic error.
	ExitErrorParameter = 2   // Indicates an invalid simulation parameter.
	ExitErrorInvariant = 3   // Indicates an internal invariant violation.
	ExitErrorConfig    = 4   // Indicates a configuration error.
	ExitErrorCanceled  = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
//
// Returns:
//   - string: The error message string.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
// It allows for the creation of configuration-specific errors with dynamic
// content.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ParameterError represents an invalid simulation parameter (coupon count
// below one, zero trials, negative generation horizon, malformed offspring
// distribution). It is surfaced to the caller before any trial runs and is
// never recovered internally.
type ParameterError struct {
	// Name is the name of the offending parameter.
	Name string
	// Message explains why the parameter is invalid.
	Message string
}

// Error returns a formatted message describing the invalid parameter.
//
// Returns:
//   - string: The error message string.
func (e ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Name, e.Message)
}

// NewParameterError creates a new ParameterError for the named parameter
// with a formatted explanation.
//
// Parameters:
//   - name: The name of the invalid parameter.
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ParameterError instance.
func NewParameterError(name, format string, a ...any) error {
	return ParameterError{Name: name, Message: fmt.Sprintf(format, a...)}
}

// IsParameterError reports whether err is (or wraps) a ParameterError.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: true if the error chain contains a ParameterError.
func IsParameterError(err error) bool {
	var pe ParameterError
	return errors.As(err, &pe)
}

// InvariantError represents an internal invariant violation, such as
// mismatched per-trial result lengths during aggregation. It indicates a bug
// in a simulator, not bad user input; aggregation must abort rather than
// coerce the data.
type InvariantError struct {
	// Message describes the violated invariant.
	Message string
}

// Error returns a formatted message describing the invariant violation.
//
// Returns:
//   - string: The error message string.
func (e InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violation: %s", e.Message)
}

// NewInvariantError creates a new InvariantError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new InvariantError instance.
func NewInvariantError(format string, a ...any) error {
	return InvariantError{Message: fmt.Sprintf(format, a...)}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: true if the error is a context error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error to the application exit code that should be
// reported to the OS.
//
// Parameters:
//   - err: The error to map; may be nil.
//
// Returns:
//   - int: The corresponding exit code.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case IsContextError(err):
		return ExitErrorCanceled
	case IsParameterError(err):
		return ExitErrorParameter
	case errors.As(err, new(InvariantError)):
		return ExitErrorInvariant
	case errors.As(err, new(ConfigError)):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}
