// Package errors carries typed application errors from the services to the
// HTTP boundary. Messages are catalog ids; responses translate them.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered. FallbackMessage is the catalog
// id shown when the error's own message is not meant for clients.
type Metadata struct {
	HTTPStatus      int
	Retryable       bool
	FallbackMessage string
	DetailsAllowed  bool
	// ClientMessage reports whether the error's own message may be shown.
	ClientMessage bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {HTTPStatus: http.StatusBadRequest, FallbackMessage: "error.validation", DetailsAllowed: true, ClientMessage: true},
	CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, FallbackMessage: "error.unauthorized", ClientMessage: true},
	CodeForbidden:    {HTTPStatus: http.StatusForbidden, FallbackMessage: "error.forbidden", ClientMessage: true},
	CodeNotFound:     {HTTPStatus: http.StatusNotFound, FallbackMessage: "error.not_found", ClientMessage: true},
	CodeConflict:     {HTTPStatus: http.StatusConflict, FallbackMessage: "error.conflict", ClientMessage: true},
	CodeRateLimit:    {HTTPStatus: http.StatusTooManyRequests, FallbackMessage: "error.rate_limited", ClientMessage: true},
	CodeInternal:     {HTTPStatus: http.StatusInternalServerError, Retryable: true, FallbackMessage: "error.internal"},
	CodeDependency:   {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, FallbackMessage: "error.dependency", DetailsAllowed: true},
}

// MetadataFor returns the rendering rules of code. Unknown codes render as
// internal errors.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given typed code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
