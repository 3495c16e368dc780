package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.False(t, err.Retryable)
}

func TestFromErrorKeepsTyped(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", Clone(ErrForbidden, "nope"))
	err := FromError(wrapped)
	assert.Equal(t, "FORBIDDEN", err.Code)
	assert.Equal(t, "nope", err.Message)
}

func TestWrapStoreUnavailableIsRetryable(t *testing.T) {
	err := Wrap(sql.ErrConnDone, ErrStoreUnavailable.Code, ErrStoreUnavailable.Status, "list users")
	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.True(t, Is(err, ErrStoreUnavailable))
	assert.False(t, Is(err, ErrNotFound))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "user not found")
	assert.Equal(t, "user not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Nil(t, Clone(nil, "x"))
}
