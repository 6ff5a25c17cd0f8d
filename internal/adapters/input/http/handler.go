package http

import (
	"n8n-chat-relay/internal/ports/input"

	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const serviceName = "n8n-chat-relay"

// HTTPHandler struct - Primary/Driving adapter for service level endpoints
type HTTPHandler struct {
	webhook input.WebhookService
	db      *gorm.DB
}

// New func - Creates new HTTP handler. db may be nil when the audit log is disabled.
func New(webhook input.WebhookService, db *gorm.DB) *HTTPHandler {
	return &HTTPHandler{
		webhook: webhook,
		db:      db,
	}
}

// HealthCheck func
// HealthCheck godoc
// @Summary Service health
// @Description Reports service status and, when configured, the audit database status
// @Tags Health
// @Produce json
// @Success 200 {object} ApiResponse
// @Failure 500 {object} ApiResponse
// @Router /health [get]
// @Router /api/n8n/health [get]
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	health := ServiceHealthResponse{
		Status:     "UP",
		Service:    serviceName,
		WebhookURL: hdl.webhook.WebhookURL(),
	}

	if hdl.db != nil {
		sqlDB, err := hdl.db.DB()
		if err != nil {
			logrus.Errorln(err)
			return errorResponse(c, fiber.StatusInternalServerError, MsgInternalServerError)
		}
		if err := sqlDB.PingContext(c.UserContext()); err != nil {
			logrus.Errorln(err)
			return errorResponse(c, fiber.StatusInternalServerError, MsgInternalServerError)
		}
		health.Database = "UP"
	}
	return successResponse(c, "Service is healthy", health)
}
