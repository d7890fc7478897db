package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeForbidden, http.StatusForbidden},
		{CodeNetwork, http.StatusBadGateway},
		{CodeStore, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("movie %d not found", 949)

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, "movie 949 not found", err.Error())
}

func TestError_IsThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("load favorites: %w", Store("read failed"))

	assert.True(t, Is(err, ErrStore))

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, CodeStore, domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus())
}

func TestWrap_KeepsCause(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeNetwork, "catalog request failed")

	assert.True(t, Is(err, io.ErrUnexpectedEOF))
	assert.True(t, Is(err, ErrNetwork))
	assert.Equal(t, "catalog request failed: unexpected EOF", err.Error())
	assert.Equal(t, io.ErrUnexpectedEOF, Unwrap(err))
}

func TestWrapf(t *testing.T) {
	err := Wrapf(io.EOF, CodeStore, "decode %s", "users/u1")

	assert.Equal(t, "decode users/u1: EOF", err.Error())
	assert.Equal(t, CodeStore, err.Code)
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	base := Validation("invalid request")
	details := map[string]string{"email": "required"}

	withDetails := base.WithDetails(details)

	assert.Nil(t, base.Details)
	assert.Equal(t, details, withDetails.Details)
	assert.Equal(t, base.Message, withDetails.Message)
}

func TestWithCause(t *testing.T) {
	withCause := ErrInternal.WithCause(io.EOF)

	assert.True(t, Is(withCause, io.EOF))
	assert.True(t, Is(withCause, ErrInternal))
	assert.Nil(t, ErrInternal.Unwrap())
}
