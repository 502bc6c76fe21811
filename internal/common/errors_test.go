package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "wrap nil error",
			originalError:   nil,
			message:         "wrapper message",
			expectedMessage: "wrapper message: <nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			assert.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
		})
	}
}

func TestWrapError_PreservesChain(t *testing.T) {
	base := errors.New("disk full")
	wrapped := WrapErrorf(base, "append snapshot %s", "2024-01-01-00-00-00")

	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "append snapshot 2024-01-01-00-00-00: disk full", wrapped.Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("source.url", "", "source URL is required")

	assert.Equal(t, "validation failed for field 'source.url': source URL is required (value: )", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("https://example.com", "HTTP request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.Contains(t, err.Error(), "https://example.com")
}

func TestHTTPError(t *testing.T) {
	err := NewHTTPErrorWithURL(http.StatusNotFound, "Not Found", "https://example.com/files")
	assert.Equal(t, "HTTP 404 error for 'https://example.com/files': Not Found", err.Error())

	var httpErr *HTTPError
	assert.True(t, errors.As(WrapError(err, "fetch"), &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil))
	assert.NoError(t, CombineErrors([]error{nil, nil}))

	single := errors.New("only")
	assert.Equal(t, single, CombineErrors([]error{nil, single}))

	combined := CombineErrors([]error{errors.New("a"), errors.New("b")})
	assert.Equal(t, "multiple errors occurred: [a; b]", combined.Error())
}
