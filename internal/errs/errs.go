// Package errs defines the error shape every gateway operation returns.
//
// There are two kinds of failure: NotFound, when a looked-up identifier
// resolved to nothing, and store passthrough, when the backing store rejected
// the operation. Passthrough errors keep the store's code and message.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Store error codes. The numbering follows the Parse REST error codes so that
// existing clients keep working.
const (
	CodeInternal            = 1
	CodeConnectionFailed    = 100
	CodeObjectNotFound      = 101
	CodeInvalidQuery        = 102
	CodeInvalidJSON         = 107
	CodeOperationForbidden  = 119
	CodeInvalidEmail        = 125
	CodeDuplicateValue      = 137
	CodeInvalidFunction     = 141
	CodeRequestLimit        = 155
	CodeUsernameMissing     = 200
	CodePasswordMissing     = 201
	CodeUsernameTaken       = 202
	CodeEmailTaken          = 203
	CodeEmailMissing        = 204
	CodeEmailNotFound       = 205
	CodeSessionMissing      = 206
	CodeInvalidSessionToken = 209

	// CodeNotFound is used when a referenced entity does not exist.
	CodeNotFound = 404
)

// Error is the normalized failure of a gateway operation.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus maps the error code onto a transport status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeObjectNotFound, CodeSessionMissing, CodeInvalidSessionToken:
		return http.StatusUnauthorized
	case CodeOperationForbidden:
		return http.StatusForbidden
	case CodeRequestLimit:
		return http.StatusTooManyRequests
	case CodeConnectionFailed:
		return http.StatusServiceUnavailable
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// ErrNotFound can be used as errors.Is target for any NotFound error.
var ErrNotFound = &Error{Code: CodeNotFound, Message: "not found"}

// New builds an error with the given store code.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFound error.
func NotFound(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Wrap keeps err as the cause of a coded error.
func Wrap(code int, err error) *Error {
	return &Error{Code: code, Message: err.Error(), cause: err}
}

// From returns err as an *Error. Errors that did not come through a store
// translation are reported as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeInternal, err)
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
