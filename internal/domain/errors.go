package domain

import "errors"

// Relay error types

var (
	// ErrRelayFailure is the single outcome surfaced for any failed relay round trip.
	// Session state is left untouched when it is returned.
	ErrRelayFailure = errors.New("relay failure")

	// ErrRelayUnavailable indicates the automation webhook could not be reached
	ErrRelayUnavailable = errors.New("automation webhook unavailable")

	// ErrRelayTimeout indicates a request to the automation webhook timed out
	ErrRelayTimeout = errors.New("automation webhook timeout")

	// ErrInvalidRequest indicates the webhook rejected the request (4xx client errors)
	ErrInvalidRequest = errors.New("invalid request")
)

// Session error types

var (
	// ErrConversationNotFound indicates the conversation id is unknown or expired
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrSessionNotInStore indicates a turn was appended to a session the store does not own.
	// This is a caller bug, not a runtime condition.
	ErrSessionNotInStore = errors.New("session is not present in the store")
)

// Audit error types

var (
	// ErrDatabaseUnavailable indicates the audit database connection is missing
	ErrDatabaseUnavailable = errors.New("database connection unavailable")

	// ErrAuditDisabled indicates the relay audit log is not configured
	ErrAuditDisabled = errors.New("relay audit log is disabled")
)
