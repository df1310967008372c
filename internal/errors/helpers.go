package errors

import (
	"fmt"
	"net/http"
)

// Common error creators for frequent use cases

// NewValidationError creates an input validation error with field context
func NewValidationError(field, value, message string) *AppError {
	return New(ErrCodeInvalidInput, message).
		WithContext("field", field).
		WithContext("value", value).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewTransportError wraps a failure to reach the gateway at all.
func NewTransportError(command string, err error) *AppError {
	return WrapRetryable(err, ErrCodeTransportFailure, fmt.Sprintf("%s request failed", command)).
		WithContext("command", command).
		WithUserMessage("SMS gateway unreachable")
}

// NewMalformedResponseError reports a body that could not be decoded or a
// numeric field that did not hold a number.
func NewMalformedResponseError(command string, err error) *AppError {
	return Wrap(err, ErrCodeMalformedResponse, fmt.Sprintf("malformed %s response", command)).
		WithContext("command", command).
		WithUserMessage("SMS gateway returned an unreadable response")
}

// NewNoDataError reports a well-formed answer that lacks the expected field.
func NewNoDataError(command, field string) *AppError {
	return New(ErrCodeNoData, fmt.Sprintf("%s response has no %s", command, field)).
		WithContext("command", command).
		WithContext("field", field).
		WithUserMessage("SMS gateway returned no data")
}

// NewRejectedError reports a non-200 answer to a fire-and-confirm call.
func NewRejectedError(command string, statusCode int) *AppError {
	appErr := New(ErrCodeRequestRejected, fmt.Sprintf("%s rejected with status %d", command, statusCode)).
		WithContext("command", command).
		WithContext("status_code", statusCode).
		WithUserMessage("SMS gateway rejected the request")
	appErr.Retryable = statusCode >= 500 || statusCode == 429 || statusCode == 408
	return appErr
}

// NewEncodingError reports caller text that is not valid UTF-8.
func NewEncodingError(field string) *AppError {
	return New(ErrCodeInvalidEncoding, fmt.Sprintf("%s must be valid UTF-8 text", field)).
		WithContext("field", field).
		WithUserMessage(fmt.Sprintf("Invalid %s encoding", field))
}

// NewPreconditionError reports an operation invoked in the wrong state.
func NewPreconditionError(operation, reason string) *AppError {
	return New(ErrCodePreconditionFailed, fmt.Sprintf("%s: %s", operation, reason)).
		WithContext("operation", operation)
}

// HTTP helpers

// HTTPStatusCode maps error codes to appropriate HTTP status codes
func HTTPStatusCode(err error) int {
	code := GetCode(err)

	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidEncoding, ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case ErrCodePreconditionFailed:
		return http.StatusConflict
	case ErrCodeNoData:
		return http.StatusNotFound
	case ErrCodeTransportFailure, ErrCodeMalformedResponse, ErrCodeRequestRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorResponse is the standardized error body returned by the webhook server
type HTTPErrorResponse struct {
	Error struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Context interface{} `json:"context,omitempty"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTPResponse converts an error to a standardized HTTP response
func ToHTTPResponse(err error, requestID string) HTTPErrorResponse {
	response := HTTPErrorResponse{
		RequestID: requestID,
	}

	if appErr, ok := As(err); ok {
		response.Error.Code = appErr.Code
		response.Error.Message = GetUserMessage(err)
		if len(appErr.Context) > 0 {
			publicContext := make(map[string]interface{})
			for k, v := range appErr.Context {
				if k != "password" && k != "secret" && k != "api_secret" {
					publicContext[k] = v
				}
			}
			if len(publicContext) > 0 {
				response.Error.Context = publicContext
			}
		}
	} else {
		response.Error.Code = ErrCodeInternalError
		response.Error.Message = GetUserMessage(err)
	}

	return response
}
