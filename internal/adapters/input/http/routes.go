package http

import (
	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/fiber/v2"
)

// Handlers groups the driving adapters mounted by SetupRoutes
type Handlers struct {
	Service *HTTPHandler
	Chat    *ChatHandler
	Webhook *WebhookHandler
}

// SetupRoutes mounts every endpoint on app. Health endpoints skip the API key check.
func SetupRoutes(app *fiber.App, hdl Handlers, apiKey string) {
	app.Get("/swagger/*", swagger.HandlerDefault) // default
	app.Get("/health", hdl.Service.HealthCheck)

	n8n := app.Group("/api/n8n")
	{
		n8n.Get("/health", hdl.Service.HealthCheck)
		n8n.Get("/chat/health", hdl.Chat.Health)

		auth := APIKeyAuth(apiKey)
		n8n.Post("/chat", auth, hdl.Chat.SendMessage)
		n8n.Post("/chat/new", auth, hdl.Chat.NewConversation)
		n8n.Get("/chat/history/:conversationId", auth, hdl.Chat.GetHistory)
		n8n.Get("/chat/audit/:conversationId", auth, hdl.Chat.GetRelayAudit)
		n8n.Get("/chat/test", auth, hdl.Chat.TestConnection)
		n8n.Post("/trigger", auth, hdl.Webhook.Trigger)
		n8n.Get("/test", auth, hdl.Webhook.TestConnection)
	}
}
