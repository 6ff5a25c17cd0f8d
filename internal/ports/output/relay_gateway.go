package output

import (
	"context"

	"n8n-chat-relay/internal/domain"
)

// RelayGateway interface - Output port
// Defines what the application needs from the workflow-automation webhook.
type RelayGateway interface {
	// Relay sends one chat turn plus its windowed context to the chat webhook
	// and returns the normalized reply text. Retries, timeouts and reply
	// extraction are the gateway's business.
	Relay(ctx context.Context, request domain.RelayRequest) (string, error)

	// Trigger forwards a generic payload to the primary webhook and returns
	// the decoded downstream body.
	Trigger(ctx context.Context, request domain.TriggerRequest) (interface{}, error)

	// PingChat sends a connection test to the chat webhook.
	PingChat(ctx context.Context) bool

	// PingTrigger sends a connection test to the primary webhook.
	PingTrigger(ctx context.Context) bool

	// ChatWebhookURL returns the configured chat webhook URL.
	ChatWebhookURL() string

	// TriggerWebhookURL returns the configured primary webhook URL.
	TriggerWebhookURL() string
}
