package sentinel

import "errors"

// Sentinel errors for infrastructure facts. The identity provider adapter and
// other infrastructure layers return these (optionally wrapped) so the auth
// core can translate them into user-safe outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist upstream
// - ErrExpired: token/code/session has aged out
// - ErrNoSession: caller presented no usable session credential
// - ErrUnavailable: provider or resource temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/outcome directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrNoSession   = errors.New("no session")
	ErrUnavailable = errors.New("unavailable")
)
