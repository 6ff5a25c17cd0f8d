package http

import (
	"errors"
	"time"

	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/input"
	"n8n-chat-relay/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ChatHandler struct - Primary/Driving adapter for the chat endpoints
type ChatHandler struct {
	srv       input.ChatService
	validator validator.Validator
}

// NewChatHandler func - Creates new chat handler
func NewChatHandler(srv input.ChatService) *ChatHandler {
	return &ChatHandler{
		srv:       srv,
		validator: validator.New(),
	}
}

// SendMessage godoc
// @Summary Send chat message
// @Description Relays a message with its conversation context to the n8n chat webhook
// @Tags Chat
// @Accept application/json
// @Produce json
// @Param X-API-Key header string false "API key"
// @Param ChatRequest body ChatRequest true "ChatRequest"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} ApiResponse
// @Failure 401 {object} ApiResponse
// @Failure 502 {object} ChatResponse
// @Router /api/n8n/chat [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var request ChatRequest
	if err := c.BodyParser(&request); err != nil {
		logrus.Errorln(err)
		return errorResponse(c, fiber.StatusBadRequest, MsgBadRequest)
	}
	if err := h.validator.ValidateStruct(request); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	rid := requestID(c)
	response, err := h.srv.SendMessage(c.UserContext(), domain.SendMessageRequest{
		Message:        request.Message,
		ConversationID: request.ConversationID,
		OwnerID:        request.UserID,
		RequestID:      rid,
	})
	if err != nil {
		status, message := chatErrorStatus(err)
		return c.Status(status).JSON(ChatResponse{
			Success:        false,
			Message:        message,
			ConversationID: request.ConversationID,
			RequestID:      rid,
			Timestamp:      time.Now(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(ChatResponse{
		Success:        true,
		Message:        "Message processed successfully",
		Response:       response.Reply,
		ConversationID: response.ConversationID,
		RequestID:      rid,
		Timestamp:      time.Now(),
	})
}

func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRelayFailure):
		return fiber.StatusBadGateway, MsgRelayFailure
	case errors.Is(err, domain.ErrConversationNotFound):
		return fiber.StatusNotFound, MsgConversationMissing
	default:
		logrus.Errorf("Chat request failed: %v", err)
		return fiber.StatusInternalServerError, MsgInternalServerError
	}
}

// NewConversation godoc
// @Summary Start conversation
// @Description Starts an empty conversation and returns its id
// @Tags Chat
// @Produce json
// @Param X-API-Key header string false "API key"
// @Param userId query string false "Owner of the conversation"
// @Success 200 {object} ApiResponse
// @Router /api/n8n/chat/new [post]
func (h *ChatHandler) NewConversation(c *fiber.Ctx) error {
	var request NewConversationRequest
	if err := c.QueryParser(&request); err != nil {
		logrus.Errorln(err)
		return errorResponse(c, fiber.StatusBadRequest, MsgBadRequest)
	}
	if err := h.validator.ValidateStruct(request); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	conversationID, err := h.srv.StartNewConversation(request.UserID)
	if err != nil {
		logrus.Errorln(err)
		return errorResponse(c, fiber.StatusInternalServerError, MsgInternalServerError)
	}

	userID := request.UserID
	if userID == "" {
		userID = domain.AnonymousOwner
	}
	return successResponse(c, "New conversation started", NewConversationResponse{
		ConversationID: conversationID,
		UserID:         userID,
		Status:         "active",
	})
}

// GetHistory godoc
// @Summary Conversation history
// @Description Returns every turn of a live conversation
// @Tags Chat
// @Produce json
// @Param X-API-Key header string false "API key"
// @Param conversationId path string true "Conversation id"
// @Success 200 {object} ApiResponse
// @Failure 404 {object} ApiResponse
// @Router /api/n8n/chat/history/{conversationId} [get]
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	history, err := h.srv.GetConversationHistory(c.Params("conversationId"))
	if err != nil {
		status, message := chatErrorStatus(err)
		return errorResponse(c, status, message)
	}
	return successResponse(c, "Conversation history retrieved", newHistoryResponse(history))
}

// GetRelayAudit godoc
// @Summary Conversation relay audit
// @Description Returns the recorded webhook round trips of a conversation, newest first
// @Tags Chat
// @Produce json
// @Param X-API-Key header string false "API key"
// @Param conversationId path string true "Conversation id"
// @Param limit query int false "Maximum rows (1-500, default 100)"
// @Success 200 {object} ApiResponse
// @Failure 400 {object} ApiResponse
// @Failure 503 {object} ApiResponse
// @Router /api/n8n/chat/audit/{conversationId} [get]
func (h *ChatHandler) GetRelayAudit(c *fiber.Ctx) error {
	var request RelayAuditRequest
	if err := c.QueryParser(&request); err != nil {
		logrus.Errorln(err)
		return errorResponse(c, fiber.StatusBadRequest, MsgBadRequest)
	}
	if err := h.validator.ValidateStruct(request); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	audits, err := h.srv.RelayAudit(c.UserContext(), c.Params("conversationId"), request.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrAuditDisabled) {
			return errorResponse(c, fiber.StatusServiceUnavailable, MsgAuditDisabled)
		}
		return errorResponse(c, fiber.StatusInternalServerError, MsgInternalServerError)
	}
	return successResponse(c, "Relay audit retrieved", newRelayAuditResponses(audits))
}

// TestConnection godoc
// @Summary Test chat webhook
// @Description Sends a connection test to the n8n chat webhook
// @Tags Chat
// @Produce json
// @Param X-API-Key header string false "API key"
// @Success 200 {object} ApiResponse
// @Failure 503 {object} ApiResponse
// @Router /api/n8n/chat/test [get]
func (h *ChatHandler) TestConnection(c *fiber.Ctx) error {
	if !h.srv.TestConnection(c.UserContext(), requestID(c)) {
		return errorResponse(c, fiber.StatusServiceUnavailable, MsgConnectionFailed)
	}
	return successResponse(c, MsgConnectionOK, fiber.Map{"webhookUrl": h.srv.ChatWebhookURL()})
}

// Health godoc
// @Summary Chat health
// @Description Reports live sessions and session settings
// @Tags Chat
// @Produce json
// @Success 200 {object} ApiResponse
// @Router /api/n8n/chat/health [get]
func (h *ChatHandler) Health(c *fiber.Ctx) error {
	stats := h.srv.Stats()
	return successResponse(c, "Chat service is healthy", ChatHealthResponse{
		Status:                "UP",
		Service:               serviceName + "-chat",
		ActiveSessions:        stats.ActiveSessions,
		SessionTimeoutMinutes: int64(stats.Timeout / time.Minute),
		ContextWindow:         stats.ContextWindow,
		SweepIntervalSeconds:  int64(stats.SweepInterval / time.Second),
		WebhookURL:            h.srv.ChatWebhookURL(),
	})
}
