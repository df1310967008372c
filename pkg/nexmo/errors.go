package nexmo

import (
	apperrors "nexmosms/internal/errors"
)

// Sentinels for errors.Is. Any error returned by the clients carrying the
// same code matches.
var (
	ErrTransportFailure   = apperrors.New(apperrors.ErrCodeTransportFailure, "transport failure")
	ErrMalformedResponse  = apperrors.New(apperrors.ErrCodeMalformedResponse, "malformed response")
	ErrNoData             = apperrors.New(apperrors.ErrCodeNoData, "no data")
	ErrRequestRejected    = apperrors.New(apperrors.ErrCodeRequestRejected, "request rejected")
	ErrInvalidInput       = apperrors.New(apperrors.ErrCodeInvalidInput, "invalid input")
	ErrInvalidEncoding    = apperrors.New(apperrors.ErrCodeInvalidEncoding, "invalid encoding")
	ErrPreconditionFailed = apperrors.New(apperrors.ErrCodePreconditionFailed, "precondition failed")
)
