package output

import (
	"context"

	"n8n-chat-relay/internal/domain"
)

// RelayAuditRepository interface - Output port
// Defines what the application needs for recording relay round trips.
type RelayAuditRepository interface {
	Record(ctx context.Context, audit *domain.RelayAudit) error
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.RelayAudit, error)
}
