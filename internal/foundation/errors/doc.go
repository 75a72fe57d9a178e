// Package errors provides classified errors for the checklist service.
//
// Every error that crosses a package boundary carries a category from the
// service's taxonomy (validation, not_found, conflict, failed_precondition,
// store, internal). Handlers map categories to HTTP status codes via
// StatusCodeFor and never inspect error strings.
package errors
