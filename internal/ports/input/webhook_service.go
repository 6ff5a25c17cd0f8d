package input

import (
	"context"

	"n8n-chat-relay/internal/domain"
)

// WebhookService interface - Input port (use case)
// Defines what the boundary can do with the primary automation webhook
type WebhookService interface {
	// Trigger forwards a validated trigger request and returns the downstream body
	Trigger(ctx context.Context, request domain.TriggerRequest) (interface{}, error)
	// TestConnection checks that the primary webhook answers
	TestConnection(ctx context.Context, requestID string) bool
	WebhookURL() string
}
