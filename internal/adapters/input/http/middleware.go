package http

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// HeaderRequestID carries the caller supplied or generated request id
	HeaderRequestID = "X-Request-ID"
	// HeaderAPIKey carries the shared API key
	HeaderAPIKey = "X-API-Key"

	requestIDLocal = "requestid"
)

// RequestID middleware - reuses X-Request-ID when supplied, otherwise generates a uuid
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     HeaderRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDLocal,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDLocal).(string); ok {
		return id
	}
	return ""
}

// APIKeyAuth middleware - rejects requests whose X-API-Key does not match apiKey.
// An empty apiKey disables the check.
func APIKeyAuth(apiKey string) fiber.Handler {
	expected := []byte(apiKey)
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}
		provided := []byte(c.Get(HeaderAPIKey))
		if subtle.ConstantTimeCompare(provided, expected) != 1 {
			logrus.WithFields(logrus.Fields{
				"request_id": requestID(c),
				"path":       c.Path(),
			}).Warn("Rejected request with invalid API key")
			return errorResponse(c, fiber.StatusUnauthorized, MsgUnauthorized)
		}
		return c.Next()
	}
}

// ErrorHandler converts errors escaping the handlers into the response envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := MsgInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		logrus.WithField("request_id", requestID(c)).Errorf("Unhandled error: %v", err)
	}
	return errorResponse(c, code, message)
}
