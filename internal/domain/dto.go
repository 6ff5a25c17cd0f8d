package domain

import "time"

// DTOs (Data Transfer Objects) - Domain layer request/response structures

type (
	// SendMessageRequest struct - Domain request DTO for one chat message
	SendMessageRequest struct {
		Message        string
		ConversationID string
		OwnerID        string
		RequestID      string
	}

	// SendMessageResponse struct - Domain response DTO for one chat message
	SendMessageResponse struct {
		Reply          string
		ConversationID string
	}

	// ConversationHistory struct - Snapshot of a conversation for the history endpoint
	ConversationHistory struct {
		ConversationID    string
		OwnerID           string
		Turns             []ConversationTurn
		MessageCount      int
		CreatedAt         time.Time
		LastActivityAt    time.Time
		SessionAgeMinutes int64
	}

	// SessionStats struct - Chat subsystem statistics
	SessionStats struct {
		ActiveSessions int
		Timeout        time.Duration
		ContextWindow  int
		SweepInterval  time.Duration
	}

	// RelayRequest struct - Everything the relay gateway needs for one chat round trip
	RelayRequest struct {
		Message           string
		Context           []ConversationTurn
		ConversationID    string
		OwnerID           string // owner recorded on the session
		UserID            string // user id supplied with this message, may be empty
		RequestID         string
		MessageCount      int
		SessionAgeMinutes int64
	}

	// TriggerRequest struct - Domain request DTO for a generic webhook trigger
	TriggerRequest struct {
		Name      string
		Email     string
		Message   string
		Data      interface{}
		RequestID string
	}
)
