package protocol

import (
	"errors"
	"fmt"
)

// Machine-readable error codes carried in AnnotateResponse.Error.
const (
	CodeBadRequest      = "bad_request"
	CodePayloadTooLarge = "payload_too_large"
)

var (
	ErrBadRequest      = errors.New(CodeBadRequest)
	ErrPayloadTooLarge = errors.New(CodePayloadTooLarge)
)

// RequestError rejects a request before any work is done.
type RequestError struct {
	Code   string
	Reason string
}

func (e *RequestError) Error() string {
	if e.Reason == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Unwrap maps the code to its sentinel so callers can use errors.Is.
func (e *RequestError) Unwrap() error {
	switch e.Code {
	case CodePayloadTooLarge:
		return ErrPayloadTooLarge
	default:
		return ErrBadRequest
	}
}

// BadRequest returns a bad_request error with the given reason.
func BadRequest(reason string) *RequestError {
	return &RequestError{Code: CodeBadRequest, Reason: reason}
}

// PayloadTooLarge returns a payload_too_large error with the given reason.
func PayloadTooLarge(reason string) *RequestError {
	return &RequestError{Code: CodePayloadTooLarge, Reason: reason}
}

// ErrorResponse builds the failure body for err.
func ErrorResponse(err error) AnnotateResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return AnnotateResponse{OK: false, Error: reqErr.Code, Reason: reqErr.Reason}
	}
	return AnnotateResponse{OK: false, Error: err.Error()}
}
