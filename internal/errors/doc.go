// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// invalid simulation parameters, internal invariant violations) and for
// carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// Errors can be inspected with errors.Is() and errors.As().
package apperrors
