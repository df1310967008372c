package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRejectedError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
		{"too many requests", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"request timeout", http.StatusRequestTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRejectedError("buyNumber", tt.status)
			assert.Equal(t, ErrCodeRequestRejected, err.Code)
			assert.Equal(t, tt.status, err.Context["status_code"])
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestNewTransportError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewTransportError("sendSMS", cause)

	assert.Equal(t, ErrCodeTransportFailure, err.Code)
	assert.True(t, err.Retryable)
	assert.Equal(t, "sendSMS", err.Context["command"])
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{NewValidationError("to", "", "required"), http.StatusBadRequest},
		{NewEncodingError("message"), http.StatusBadRequest},
		{NewPreconditionError("reply", "no inbound message"), http.StatusConflict},
		{NewNoDataError("getBalance", "value"), http.StatusNotFound},
		{NewMalformedResponseError("sendSMS", errors.New("eof")), http.StatusBadGateway},
		{NewRejectedError("cancelNumber", 420), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatusCode(tt.err))
		})
	}
}

func TestToHTTPResponse(t *testing.T) {
	err := NewConfigError("gateway.api_secret", "missing").
		WithContext("api_secret", "hunter2")

	resp := ToHTTPResponse(err, "req_1")

	assert.Equal(t, "req_1", resp.RequestID)
	assert.Equal(t, ErrCodeInvalidConfig, resp.Error.Code)
	assert.Equal(t, "Configuration error", resp.Error.Message)
	ctx, ok := resp.Error.Context.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "gateway.api_secret", ctx["config_key"])
	assert.NotContains(t, ctx, "api_secret")

	plain := ToHTTPResponse(errors.New("boom"), "")
	assert.Equal(t, ErrCodeInternalError, plain.Error.Code)
	assert.Nil(t, plain.Error.Context)
}
