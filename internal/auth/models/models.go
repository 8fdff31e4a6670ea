// Package models holds the auth core's data types: the verification request
// union, resolution results, and the action envelope every credential
// operation returns.
package models

import "placelist/internal/identity"

// Method records which verification path succeeded. It feeds audit logging
// only and is never exposed to the caller.
type Method string

const (
	MethodToken   Method = "token"
	MethodCode    Method = "code"
	MethodSession Method = "session"
)

// VerificationRequest is a tagged union of exactly one verification method.
// The sealed interface makes a forgotten dispatch case a compile-time error.
type VerificationRequest interface {
	verificationRequest()
}

// TokenHash verifies a single-use email-link token.
type TokenHash struct {
	Token   string
	Purpose identity.Purpose
}

// AuthorizationCode verifies a single-use exchange code.
type AuthorizationCode struct {
	Code string
}

// ExistingSession verifies the caller's live session credential.
type ExistingSession struct{}

func (TokenHash) verificationRequest()         {}
func (AuthorizationCode) verificationRequest() {}
func (ExistingSession) verificationRequest()   {}

// FromCallback builds the verification request for an email-link callback.
// Inputs are inspected in fixed priority order: a token hash with a valid
// purpose wins, then an authorization code, then the existing session. The
// inputs are never merged.
func FromCallback(tokenHash, typ, code string) VerificationRequest {
	if tokenHash != "" {
		if purpose, ok := identity.ValidPurpose(typ); ok {
			return TokenHash{Token: tokenHash, Purpose: purpose}
		}
	}
	if code != "" {
		return AuthorizationCode{Code: code}
	}
	return ExistingSession{}
}

// Resolution is a successful verification: who the caller is and which path
// proved it.
type Resolution struct {
	Subject string
	Email   string
	Method  Method
}

// ActionResult is the discriminated envelope returned by every credential
// action. Succeeded is true iff Data is set and Error is empty; FieldErrors
// is populated only for failures attributable to a specific input field.
type ActionResult[T any] struct {
	Data        *T                  `json:"data"`
	Error       string              `json:"error,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Succeeded   bool                `json:"succeeded"`
}

// Succeed builds a successful ActionResult.
func Succeed[T any](data T) ActionResult[T] {
	return ActionResult[T]{Data: &data, Succeeded: true}
}

// Fail builds a failed ActionResult with a caller-safe message.
func Fail[T any](message string) ActionResult[T] {
	return ActionResult[T]{Error: message}
}

// FailFields builds a failed ActionResult attributing the failure to
// specific input fields.
func FailFields[T any](message string, fields map[string][]string) ActionResult[T] {
	return ActionResult[T]{Error: message, FieldErrors: fields}
}
