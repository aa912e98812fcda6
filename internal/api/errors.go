package api

import (
	"fmt"
	"net/http"
)

// Error tags of the public envelope. The tag decides the HTTP status.
const (
	TagBadRequest        = "bad_request"
	TagValidationError   = "validation_error"
	TagInvalidAsset      = "invalid_asset"
	TagUnauthorized      = "unauthorized"
	TagNotFound          = "not_found"
	TagNoRoute           = "no_route"
	TagRateLimitExceeded = "rate_limit_exceeded"
	TagDatabase          = "database"
	TagInternal          = "internal_error"
)

// Error is a request-scoped failure carrying its public envelope. The
// wrapped cause is for server logs only and never reaches the client.
type Error struct {
	Tag     string
	Message string
	Details string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Status maps the tag to its HTTP status code. Unknown tags are server
// failures.
func (e *Error) Status() int {
	switch e.Tag {
	case TagBadRequest, TagValidationError, TagInvalidAsset:
		return http.StatusBadRequest
	case TagUnauthorized:
		return http.StatusUnauthorized
	case TagNotFound, TagNoRoute:
		return http.StatusNotFound
	case TagRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorEnvelope is the JSON body of every error response.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// envelope renders the client-facing body. Server failures get an
// opaque message; the cause stays out of the response entirely.
func (e *Error) envelope() errorEnvelope {
	if e.Status() >= http.StatusInternalServerError {
		return errorEnvelope{Error: e.Tag, Message: "An internal error occurred"}
	}
	return errorEnvelope{Error: e.Tag, Message: e.Message, Details: e.Details}
}

// BadRequest flags a malformed request.
func BadRequest(message string) *Error {
	return &Error{Tag: TagBadRequest, Message: message}
}

// ValidationError flags a request that parsed but failed validation.
func ValidationError(message string) *Error {
	return &Error{Tag: TagValidationError, Message: message}
}

// InvalidAsset flags an unparseable asset path parameter. The details
// name the offending parameter.
func InvalidAsset(param string, cause error) *Error {
	return &Error{
		Tag:     TagInvalidAsset,
		Message: "invalid asset",
		Details: fmt.Sprintf("parameter %q: %v", param, cause),
		Cause:   cause,
	}
}

// NotFound flags a missing resource.
func NotFound(message string) *Error {
	return &Error{Tag: TagNotFound, Message: message}
}

// NoRoute flags a pair with no usable offers.
func NoRoute(message string) *Error {
	return &Error{Tag: TagNoRoute, Message: message}
}

// Database wraps a storage failure.
func Database(cause error) *Error {
	return &Error{Tag: TagDatabase, Message: "database failure", Cause: cause}
}

// Internal wraps any other server-side failure.
func Internal(cause error) *Error {
	return &Error{Tag: TagInternal, Message: "internal failure", Cause: cause}
}
