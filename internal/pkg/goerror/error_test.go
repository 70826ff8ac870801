package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "invalid input", err: NewInvalidInput(nil, "to", "to is required"), want: http.StatusBadRequest},
		{name: "unauthorized", err: NewUnauthorized("Unauthorized"), want: http.StatusUnauthorized},
		{name: "unavailable", err: NewUnavailable(ErrUnavailable, "try later"), want: http.StatusServiceUnavailable},
		{name: "server", err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	// Act
	err := NewInvalidInput(nil, "text", "text is required when html is empty", "dangling")

	// Assert
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
	assert.Empty(t, gerr.Fields())

	err = NewInvalidInput(nil, "text", "text is required when html is empty")
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, map[string]string{"text": "text is required when html is empty"}, gerr.Fields())
	assert.Equal(t, TypeValidation, gerr.Type())
}

func TestNewUnavailable_Unwrap(t *testing.T) {
	err := NewUnavailable(ErrUnavailable, "dispatch queue is full")

	assert.ErrorIs(t, err, ErrUnavailable)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "dispatch queue is full", gerr.Msg())
	assert.Equal(t, "ERROR_CODE_UNAVAILABLE", gerr.Code().String())
}
