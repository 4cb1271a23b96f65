package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindInternal covers unexpected failures. It is the zero value so
	// anything unclassified is reported as internal.
	KindInternal Kind = iota
	// KindValidation is returned for missing or invalid fields.
	KindValidation
	// KindNotFound is returned when an entity does not exist.
	KindNotFound
	// KindConflict is returned when a uniqueness rule is violated.
	KindConflict
	// KindUnauthorized is returned when credentials are missing or rejected.
	KindUnauthorized
	// KindForbidden is returned when the caller may not perform the action.
	KindForbidden
)

// Error is a domain error carrying a kind and a user facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a KindValidation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound builds a KindNotFound error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict builds a KindConflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden builds a KindForbidden error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf reports the kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{Message: e.Message}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Internal errors never
// leak their message.
func MapErrorToHTTP(err error) *HTTPError {
	var e *Error
	if !errors.As(err, &e) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	switch e.Kind {
	case KindValidation, KindConflict:
		return NewHTTPError(http.StatusBadRequest, e.Message)
	case KindNotFound:
		return NewHTTPError(http.StatusNotFound, e.Message)
	case KindUnauthorized:
		return NewHTTPError(http.StatusUnauthorized, e.Message)
	case KindForbidden:
		return NewHTTPError(http.StatusForbidden, e.Message)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
