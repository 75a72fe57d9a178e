package errors

import "net/http"

// StatusCodeFor determines the HTTP status code for a given error based on its
// classification. Unknown errors map to 500. Conflicts also map to 500: by the
// time a conflict escapes to the HTTP layer, recovery has already failed and
// the state is not caller-correctable.
func StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if c, ok := AsClassified(err); ok {
		switch c.Category() {
		case CategoryValidation, CategoryFailedPrecondition:
			return http.StatusBadRequest
		case CategoryNotFound:
			return http.StatusNotFound
		case CategoryConflict, CategoryStore, CategoryInternal:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}

// PublicMessage returns the caller-safe message for err. Store and internal
// failures are collapsed to a generic message so database detail never leaks
// into responses; everything else surfaces its classified message.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	if !ok {
		return "internal error"
	}
	switch c.Category() {
	case CategoryStore, CategoryInternal, CategoryConflict:
		return "internal error"
	default:
		return c.Message()
	}
}
