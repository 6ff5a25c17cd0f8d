package http

import (
	"time"

	"n8n-chat-relay/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// Messages returned to callers. Internal error text is never echoed for relay failures.
const (
	MsgSuccess             = "Success"
	MsgBadRequest          = "Sorry, Not responding because of incorrect syntax"
	MsgUnauthorized        = "Invalid or missing API key"
	MsgInternalServerError = "Internal Server Error"
	MsgRelayFailure        = "Failed to process message, the automation webhook did not respond"
	MsgTriggerFailure      = "Failed to trigger webhook"
	MsgConversationMissing = "Conversation not found"
	MsgAuditDisabled       = "Relay audit log is disabled"
	MsgConnectionOK        = "Connection to n8n webhook successful"
	MsgConnectionFailed    = "Connection to n8n webhook failed"
)

// ApiResponse struct - Generic HTTP response envelope
type ApiResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type (
	// ChatResponse struct - HTTP response DTO for one chat message
	ChatResponse struct {
		Success        bool      `json:"success"`
		Message        string    `json:"message"`
		Response       string    `json:"response,omitempty"`
		ConversationID string    `json:"conversationId,omitempty"`
		RequestID      string    `json:"requestId,omitempty"`
		Timestamp      time.Time `json:"timestamp"`
	}

	// NewConversationResponse struct
	NewConversationResponse struct {
		ConversationID string `json:"conversationId"`
		UserID         string `json:"userId"`
		Status         string `json:"status"`
	}

	// TurnResponse struct - One turn of a conversation history
	TurnResponse struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Timestamp time.Time `json:"timestamp"`
	}

	// HistoryResponse struct - HTTP response DTO for a conversation history
	HistoryResponse struct {
		ConversationID    string         `json:"conversationId"`
		UserID            string         `json:"userId"`
		Messages          []TurnResponse `json:"messages"`
		MessageCount      int            `json:"messageCount"`
		CreatedAt         time.Time      `json:"createdAt"`
		LastActivity      time.Time      `json:"lastActivity"`
		SessionAgeMinutes int64          `json:"sessionAgeMinutes"`
	}

	// RelayAuditResponse struct - One recorded relay round trip
	RelayAuditResponse struct {
		ID             string     `json:"id"`
		RequestID      string     `json:"requestId"`
		ConversationID string     `json:"conversationId,omitempty"`
		Kind           string     `json:"kind"`
		Status         string     `json:"status"`
		DurationMs     int64      `json:"durationMs"`
		Error          string     `json:"error,omitempty"`
		CreatedAt      *time.Time `json:"createdAt,omitempty"`
	}

	// ChatHealthResponse struct - Chat subsystem health
	ChatHealthResponse struct {
		Status                string `json:"status"`
		Service               string `json:"service"`
		ActiveSessions        int    `json:"activeSessions"`
		SessionTimeoutMinutes int64  `json:"sessionTimeoutMinutes"`
		ContextWindow         int    `json:"contextWindow"`
		SweepIntervalSeconds  int64  `json:"sweepIntervalSeconds"`
		WebhookURL            string `json:"webhookUrl"`
	}

	// ServiceHealthResponse struct
	ServiceHealthResponse struct {
		Status     string `json:"status"`
		Service    string `json:"service"`
		WebhookURL string `json:"webhookUrl,omitempty"`
		Database   string `json:"database,omitempty"`
	}
)

func newHistoryResponse(history *domain.ConversationHistory) HistoryResponse {
	messages := make([]TurnResponse, len(history.Turns))
	for i, turn := range history.Turns {
		messages[i] = TurnResponse{
			Role:      string(turn.Role),
			Content:   turn.Content,
			Timestamp: turn.CreatedAt,
		}
	}
	return HistoryResponse{
		ConversationID:    history.ConversationID,
		UserID:            history.OwnerID,
		Messages:          messages,
		MessageCount:      history.MessageCount,
		CreatedAt:         history.CreatedAt,
		LastActivity:      history.LastActivityAt,
		SessionAgeMinutes: history.SessionAgeMinutes,
	}
}

func newRelayAuditResponses(audits []domain.RelayAudit) []RelayAuditResponse {
	responses := make([]RelayAuditResponse, len(audits))
	for i, audit := range audits {
		responses[i] = RelayAuditResponse{
			RequestID:      audit.RequestID,
			ConversationID: audit.ConversationID,
			Kind:           string(audit.Kind),
			Status:         string(audit.Status),
			DurationMs:     audit.DurationMs,
			Error:          audit.Error,
			CreatedAt:      audit.CreatedAt,
		}
		if audit.ID != nil {
			responses[i].ID = audit.ID.String()
		}
	}
	return responses
}

func successResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(ApiResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ApiResponse{
		Success:   false,
		Message:   message,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}
