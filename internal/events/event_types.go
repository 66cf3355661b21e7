package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSignupInitiated        EventType = "signup_initiated"
	EventSignupVerified         EventType = "signup_verified"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
	EventUserSuspended          EventType = "user_suspended"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SignupInitiatedPayload carries the raw one-time code for delivery. It only
// ever travels the in-process bus, never a response body outside development.
type SignupInitiatedPayload struct {
	Identity  string    `json:"identity"`
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordResetRequestedPayload carries the raw reset token for delivery.
type PasswordResetRequestedPayload struct {
	Identity  string    `json:"identity"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordChangedPayload notes how many sessions the change terminated.
type PasswordChangedPayload struct {
	RevokedSessions int64 `json:"revoked_sessions"`
}

// UserSuspendedPayload describes a suspension action.
type UserSuspendedPayload struct {
	Suspended bool       `json:"suspended"`
	Until     *time.Time `json:"until,omitempty"`
}
