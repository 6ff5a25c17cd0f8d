package http

import (
	"errors"

	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/input"
	"n8n-chat-relay/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// WebhookHandler struct - Primary/Driving adapter for the generic webhook trigger
type WebhookHandler struct {
	srv       input.WebhookService
	validator validator.Validator
}

// NewWebhookHandler func - Creates new webhook handler
func NewWebhookHandler(srv input.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		srv:       srv,
		validator: validator.New(),
	}
}

// Trigger godoc
// @Summary Trigger webhook
// @Description Forwards a payload to the primary n8n webhook
// @Tags Webhook
// @Accept application/json
// @Produce json
// @Param X-API-Key header string false "API key"
// @Param TriggerRequest body TriggerRequest true "TriggerRequest"
// @Success 200 {object} ApiResponse
// @Failure 400 {object} ApiResponse
// @Failure 502 {object} ApiResponse
// @Router /api/n8n/trigger [post]
func (h *WebhookHandler) Trigger(c *fiber.Ctx) error {
	var request TriggerRequest
	if err := c.BodyParser(&request); err != nil {
		logrus.Errorln(err)
		return errorResponse(c, fiber.StatusBadRequest, MsgBadRequest)
	}
	if err := h.validator.ValidateStruct(request); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.srv.Trigger(c.UserContext(), domain.TriggerRequest{
		Name:      request.Name,
		Email:     request.Email,
		Message:   request.Message,
		Data:      request.Data,
		RequestID: requestID(c),
	})
	if err != nil {
		if errors.Is(err, domain.ErrRelayFailure) {
			return errorResponse(c, fiber.StatusBadGateway, MsgTriggerFailure)
		}
		logrus.Errorln(err)
		return errorResponse(c, fiber.StatusInternalServerError, MsgInternalServerError)
	}
	return successResponse(c, "Webhook triggered successfully", result)
}

// TestConnection godoc
// @Summary Test primary webhook
// @Description Sends a connection test to the primary n8n webhook
// @Tags Webhook
// @Produce json
// @Param X-API-Key header string false "API key"
// @Success 200 {object} ApiResponse
// @Failure 503 {object} ApiResponse
// @Router /api/n8n/test [get]
func (h *WebhookHandler) TestConnection(c *fiber.Ctx) error {
	if !h.srv.TestConnection(c.UserContext(), requestID(c)) {
		return errorResponse(c, fiber.StatusServiceUnavailable, MsgConnectionFailed)
	}
	return successResponse(c, MsgConnectionOK, fiber.Map{"webhookUrl": h.srv.WebhookURL()})
}
