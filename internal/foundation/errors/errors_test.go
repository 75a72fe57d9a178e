package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderProducesClassifiedError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := StoreError("failed to persist checklist").
		WithCause(cause).
		WithContext("unit_id", "u-1").
		Build()

	require.Error(t, err)
	assert.Equal(t, CategoryStore, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, "failed to persist checklist", err.Message())
	assert.Equal(t, "u-1", err.Context()["unit_id"])
	assert.ErrorIs(t, err, cause)
}

func TestAsClassifiedThroughWrapping(t *testing.T) {
	inner := NotFoundError("task not found").Build()
	wrapped := fmt.Errorf("handling request: %w", inner)

	c, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Equal(t, CategoryNotFound, c.Category())
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
}

func TestCategoryOfUnclassified(t *testing.T) {
	assert.Equal(t, CategoryInternal, CategoryOf(stderrors.New("boom")))
}

func TestCategoryPredicates(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{ValidationError("bad input").Build(), IsValidation},
		{NotFoundError("missing").Build(), IsNotFound},
		{ConflictError("duplicate active checklist").Build(), IsConflict},
		{FailedPreconditionError("incomplete tasks").Build(), IsFailedPrecondition},
	}
	for _, tc := range cases {
		assert.True(t, tc.pred(tc.err), "predicate failed for %v", tc.err)
	}
}

func TestStatusCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ValidationError("bad").Build(), http.StatusBadRequest},
		{"failed precondition", FailedPreconditionError("open tasks").Build(), http.StatusBadRequest},
		{"not found", NotFoundError("gone").Build(), http.StatusNotFound},
		{"conflict", ConflictError("dup").Build(), http.StatusInternalServerError},
		{"store", StoreError("down").Build(), http.StatusInternalServerError},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCodeFor(tc.err))
		})
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "internal error", PublicMessage(StoreError("sqlite I/O error at page 9").Build()))
	assert.Equal(t, "internal error", PublicMessage(stderrors.New("raw")))
	assert.Equal(t, "unit not found", PublicMessage(NotFoundError("unit not found").Build()))
}
