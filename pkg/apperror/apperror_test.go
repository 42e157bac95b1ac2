package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewAuthenticationError("who", nil), http.StatusUnauthorized},
		{NewPermissionError("no", nil), http.StatusForbidden},
		{NewNotFoundError("gone", nil), http.StatusNotFound},
		{NewConflictError("dup", nil), http.StatusConflict},
		{NewInternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Type.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestAs_FindsWrappedError(t *testing.T) {
	cause := errors.New("unique violation")
	err := fmt.Errorf("create review: %w", NewConflictError("review already exists", cause))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ConflictError, appErr.Type)
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsValidation(nil))
}

func TestError_IncludesCause(t *testing.T) {
	err := NewInternalError("query users", errors.New("connection reset"))
	assert.Equal(t, "query users: connection reset", err.Error())
	assert.Equal(t, "not found", NewNotFoundError("not found", nil).Error())
}
