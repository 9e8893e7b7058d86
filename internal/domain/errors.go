package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes failures surfaced by the provider router and the
// session controller.
type ErrorType string

const (
	// ErrorTypeConfiguration indicates missing or invalid provider
	// configuration. No network call was attempted.
	ErrorTypeConfiguration ErrorType = "configuration"

	// ErrorTypeTransport indicates a failed backend call: a non-success
	// HTTP status or a network-level failure.
	ErrorTypeTransport ErrorType = "transport"

	// ErrorTypeEmptyReply indicates the backend returned no usable text.
	ErrorTypeEmptyReply ErrorType = "empty_reply"

	// ErrorTypeConflict indicates a session id collision.
	ErrorTypeConflict ErrorType = "conflict"

	// ErrorTypeNotFound indicates an unknown session id.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeBusy indicates the session already has a model call in
	// flight and the new request was rejected.
	ErrorTypeBusy ErrorType = "busy"

	// ErrorTypeInvalidRequest indicates malformed caller input.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
)

// Error is the canonical error value for this service. StatusCode carries the
// upstream HTTP status for transport errors; Body carries the upstream
// response text when available.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Body       string    `json:"-"`
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode maps the error to a status for the session API surface.
func (e *Error) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeConfiguration, ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeConflict, ErrorTypeBusy:
		return http.StatusConflict
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTransport, ErrorTypeEmptyReply:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrConfiguration builds a configuration error.
func ErrConfiguration(message string) *Error {
	return &Error{Type: ErrorTypeConfiguration, Message: message}
}

// ErrTransport builds a transport error carrying the upstream status and body.
func ErrTransport(status int, body string) *Error {
	return &Error{
		Type:       ErrorTypeTransport,
		Message:    fmt.Sprintf("provider returned status %d", status),
		StatusCode: status,
		Body:       body,
	}
}

// ErrEmptyReply is returned when the backend produced no text to show.
var ErrEmptyReply = &Error{Type: ErrorTypeEmptyReply, Message: "model returned an empty reply"}

// IsType reports whether err is (or wraps) a domain Error of the given type.
func IsType(err error, t ErrorType) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}
