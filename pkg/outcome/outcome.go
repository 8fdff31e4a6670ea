// Package outcome defines the closed error taxonomy for the auth surface.
//
// Every failure that can reach a caller is normalized into one of five codes.
// Services wrap infrastructure errors with a code; handlers translate codes
// into responses without ever exposing the underlying message.
package outcome

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"placelist/pkg/platform/sentinel"
)

// Code classifies a failure for presentation purposes.
type Code string

const (
	// CodeValidation marks malformed input caught before any provider call.
	// The only code permitted to carry field-level detail to the caller.
	CodeValidation Code = "validation"

	// CodeInvalid marks a rejected token, code, or credential.
	CodeInvalid Code = "invalid"

	// CodeExpired marks a token or code rejected specifically due to age.
	CodeExpired Code = "expired"

	// CodeNoSession marks protected-resource access without a live session.
	CodeNoSession Code = "no_session"

	// CodeServer marks unexpected or provider-infrastructure failures.
	CodeServer Code = "server"
)

// Error carries a taxonomy code alongside a caller-safe message. The wrapped
// cause is for logs only and must never be rendered to the caller.
type Error struct {
	Code    Code
	Message string
	Fields  map[string][]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a taxonomy error with a caller-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a taxonomy code to an underlying error. The cause stays
// available for logging via Unwrap but the caller sees only the message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation creates a validation error carrying field-level detail.
func NewValidation(message string, fields map[string][]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code Code) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// CodeOf extracts the taxonomy code from err, defaulting to CodeServer for
// anything untagged so unexpected failures never leak detail.
func CodeOf(err error) Code {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return CodeServer
}

// FieldsOf extracts field-level detail from err, nil unless err is a
// validation failure.
func FieldsOf(err error) map[string][]string {
	var oe *Error
	if errors.As(err, &oe) && oe.Code == CodeValidation {
		return oe.Fields
	}
	return nil
}

// Expired reports whether a provider error represents an age-based rejection.
// Any provider message containing "expired" (case-insensitive) counts, as does
// the expiry sentinel.
func Expired(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sentinel.ErrExpired) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "expired")
}

// Normalize maps a provider-level error into the closed taxonomy. The expired
// rule wins over everything; taxonomy errors pass through; missing-session and
// unavailability sentinels map to their codes; anything else gets the fallback
// code supplied by the caller (invalid for token/code paths, no_session for
// the session path).
func Normalize(err error, fallback Code) Code {
	if err == nil {
		return ""
	}
	if Expired(err) {
		return CodeExpired
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	if errors.Is(err, sentinel.ErrNoSession) {
		return CodeNoSession
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return CodeServer
	}
	return fallback
}

// ToHTTPStatus converts a taxonomy code to an HTTP status for non-envelope
// responses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeInvalid, CodeExpired, CodeNoSession:
		return http.StatusUnauthorized
	case CodeServer:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
