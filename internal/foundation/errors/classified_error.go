package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError represents a structured error with category, severity, and context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.category, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.category, e.message)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory {
	return e.category
}

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity {
	return e.severity
}

// Message returns the error message without category decoration.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Cause returns the underlying error.
func (e *ClassifiedError) Cause() error {
	return e.cause
}

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

// WithContext adds a context value and returns the error for chaining.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	e.context = e.context.Set(key, value)
	return e
}

// Is implements error comparison: two classified errors match when category
// and message agree, so sentinel-style comparisons work through wrapping.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// IsCategory checks if the error belongs to a specific category.
func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// AsClassified extracts a ClassifiedError from an error chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var c *ClassifiedError
	if stderrors.As(err, &c) {
		return c, true
	}
	return nil, false
}

// CategoryOf returns the category of err, or CategoryInternal for unclassified errors.
func CategoryOf(err error) ErrorCategory {
	if c, ok := AsClassified(err); ok {
		return c.Category()
	}
	return CategoryInternal
}

// IsValidation reports whether err is classified as a validation failure.
func IsValidation(err error) bool { return CategoryOf(err) == CategoryValidation }

// IsNotFound reports whether err is classified as not-found.
func IsNotFound(err error) bool { return CategoryOf(err) == CategoryNotFound }

// IsConflict reports whether err is classified as a uniqueness conflict.
func IsConflict(err error) bool {
	if c, ok := AsClassified(err); ok {
		return c.Category() == CategoryConflict
	}
	return false
}

// IsFailedPrecondition reports whether err is a business-rule rejection.
func IsFailedPrecondition(err error) bool {
	if c, ok := AsClassified(err); ok {
		return c.Category() == CategoryFailedPrecondition
	}
	return false
}
