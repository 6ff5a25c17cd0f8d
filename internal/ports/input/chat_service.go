package input

import (
	"context"

	"n8n-chat-relay/internal/domain"
)

// ChatService interface - Input port (use case)
// Defines what the boundary can do with conversations
type ChatService interface {
	StartNewConversation(ownerID string) (string, error)
	SendMessage(ctx context.Context, request domain.SendMessageRequest) (*domain.SendMessageResponse, error)
	GetConversationHistory(conversationID string) (*domain.ConversationHistory, error)
	RelayAudit(ctx context.Context, conversationID string, limit int) ([]domain.RelayAudit, error)
	TestConnection(ctx context.Context, requestID string) bool
	Stats() domain.SessionStats
	ChatWebhookURL() string
}
