// Package events publishes session-lifecycle security events as CloudEvents to
// Kafka. Publishing is strictly best-effort: failures are logged by callers and
// never influence the outcome of the request that produced the event.
package events

import (
	"context"
	"time"
)

// EventType identifies a session security event.
type EventType string

const (
	EventLoginSucceeded EventType = "courier.auth.login.succeeded"
	EventLoginFailed    EventType = "courier.auth.login.failed"
	EventUserRegistered EventType = "courier.auth.user.registered"
	EventReuseDetected  EventType = "courier.auth.token.reuse_detected"
	EventLogout         EventType = "courier.auth.logout"
)

// Publisher is the sink the session service emits events into.
type Publisher interface {
	Publish(ctx context.Context, eventType EventType, subject string, payload any) error
}

// LoginSucceededPayload describes a successful authentication. IPAddress and
// UserAgent come from the request that authenticated; empty means unknown.
type LoginSucceededPayload struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LoginFailedPayload describes a rejected authentication attempt. The
// identifier is the presented email, not a resolved user id.
type LoginFailedPayload struct {
	Identifier string    `json:"identifier"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// UserRegisteredPayload describes a completed registration.
type UserRegisteredPayload struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// ReuseDetectedPayload describes a refresh-token replay and the family-wide
// revocation it triggered.
type ReuseDetectedPayload struct {
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
}

// LogoutPayload describes an effective logout (a revocation actually happened).
type LogoutPayload struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, EventType, string, any) error { return nil }

var _ Publisher = NopPublisher{}
