package audit

import "time"

// Action names an auditable auth event.
type Action string

const (
	ActionAuthSucceeded             Action = "auth_succeeded"
	ActionAuthFailed                Action = "auth_failed"
	ActionGateDenied                Action = "gate_denied"
	ActionSignupRequested           Action = "signup_requested"
	ActionPasswordResetRequested    Action = "password_reset_requested"
	ActionPasswordUpdated           Action = "password_updated"
	ActionSessionsInvalidated       Action = "sessions_invalidated"
	ActionSessionInvalidationFailed Action = "session_invalidation_failed"
)

// Event is emitted from the auth core to capture key actions. Subject holds
// the provider's opaque subject identifier; identifiers derived from user
// input (emails) must be masked before they land here. Raw tokens, codes,
// and passwords never appear in events.
type Event struct {
	ID        string
	Timestamp time.Time
	Action    Action
	Subject   string
	Method    string
	Outcome   string
	RequestID string
	Detail    string
}
