package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryValidation represents malformed or missing request input.
	CategoryValidation ErrorCategory = "validation"
	// CategoryNotFound represents a referenced unit, checklist, or task that does not exist.
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryConflict represents a duplicate-active-checklist uniqueness violation.
	// Conflicts are recoverable: the recovery routine is always attempted before
	// one of these reaches a caller.
	CategoryConflict ErrorCategory = "conflict"
	// CategoryFailedPrecondition represents a business-rule rejection, such as
	// submitting a checklist that still has open tasks.
	CategoryFailedPrecondition ErrorCategory = "failed_precondition"
	// CategoryStore represents storage-level failures (unreachable database,
	// failed transaction).
	CategoryStore ErrorCategory = "store"
	// CategoryInternal represents internal invariant failures.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Merge combines another context into this one, the other side winning on collision.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if len(other) == 0 {
		return c
	}
	if c == nil {
		c = make(ErrorContext, len(other))
	}
	maps.Copy(c, other)
	return c
}
