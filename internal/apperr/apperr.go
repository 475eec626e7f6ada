// Package apperr defines the error kinds surfaced to API clients.
//
// Every kind carries a human message and a suggested action, and knows its
// HTTP status and wire name. Lower layers return plain wrapped errors; the
// service layer translates them into *Error values, and the HTTP boundary
// serializes them.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind enumerates the error categories.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindService
	KindMethodNotAllowed
	KindTooManyRequests
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindService:
		return "ServiceError"
	case KindMethodNotAllowed:
		return "MethodNotAllowedError"
	case KindTooManyRequests:
		return "TooManyRequestsError"
	default:
		return "InternalServerError"
	}
}

// StatusCode returns the HTTP status associated with the kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindService:
		return http.StatusServiceUnavailable
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a client-facing error with a structured payload.
type Error struct {
	Kind    Kind
	Message string
	Action  string
	// Details maps field names to messages. Only set for missing fields.
	Details map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error.
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// MarshalJSON renders the response body. The cause is never serialized.
// MethodNotAllowedError historically uses camelCase "statusCode"; clients
// depend on it, so it is kept.
func (e *Error) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"name":    e.Kind.String(),
		"message": e.Message,
		"action":  e.Action,
	}
	if e.Kind == KindMethodNotAllowed {
		body["statusCode"] = e.StatusCode()
	} else {
		body["status_code"] = e.StatusCode()
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return json.Marshal(body)
}

// Validation returns a ValidationError with the given message and action.
func Validation(message, action string) *Error {
	if message == "" {
		message = "A validation error occurred."
	}
	if action == "" {
		action = "Adjust the submitted data and try again."
	}
	return &Error{Kind: KindValidation, Message: message, Action: action}
}

// MissingFields returns a ValidationError listing every missing field.
func MissingFields(fields []string) *Error {
	details := make(map[string]string, len(fields))
	for _, f := range fields {
		details[f] = "The " + f + " field is required."
	}
	err := Validation("Input validation failed due to missing data.", "")
	err.Details = details
	return err
}

// NotFound returns a NotFoundError.
func NotFound(message, action string) *Error {
	if message == "" {
		message = "The requested resource could not be found."
	}
	if action == "" {
		action = "Check that the request parameters are correct."
	}
	return &Error{Kind: KindNotFound, Message: message, Action: action}
}

// Service wraps cause in a ServiceError.
func Service(message string, cause error) *Error {
	if message == "" {
		message = "Service currently unavailable."
	}
	return &Error{
		Kind:    KindService,
		Message: message,
		Action:  "Check whether the service is available.",
		Cause:   cause,
	}
}

// MethodNotAllowed returns the 405 error.
func MethodNotAllowed() *Error {
	return &Error{
		Kind:    KindMethodNotAllowed,
		Message: "Method not allowed for this endpoint.",
		Action:  "Check that the HTTP method is valid for this endpoint",
	}
}

// Internal wraps an unexpected failure.
func Internal(cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: "An unexpected internal error occurred.",
		Action:  "Contact support.",
		Cause:   cause,
	}
}

// TooManyRequests is returned when a client exceeds a rate limit.
func TooManyRequests() *Error {
	return &Error{
		Kind:    KindTooManyRequests,
		Message: "Too many requests.",
		Action:  "Wait a moment before trying again.",
	}
}

// As extracts an *Error from err. Anything that is not already an *Error
// is wrapped as an InternalServerError.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
