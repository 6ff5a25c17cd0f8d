package application

import (
	"context"
	"errors"
	"fmt"

	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/output"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// WebhookService struct - Application service forwarding generic triggers to the primary webhook
type WebhookService struct {
	gateway output.RelayGateway
	audit   *auditRecorder
	clock   clockwork.Clock
}

// NewWebhookService func - Creates new webhook service. auditRepo may be nil.
func NewWebhookService(gateway output.RelayGateway, auditRepo output.RelayAuditRepository, clock clockwork.Clock) *WebhookService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WebhookService{
		gateway: gateway,
		audit:   newAuditRecorder(auditRepo, clock),
		clock:   clock,
	}
}

// Trigger func - Use case: forward a trigger request and return the downstream body
func (s *WebhookService) Trigger(ctx context.Context, request domain.TriggerRequest) (interface{}, error) {
	logrus.WithFields(logrus.Fields{
		"request_id": request.RequestID,
		"name":       request.Name,
	}).Info("Triggering webhook")

	startTime := s.clock.Now()
	result, err := s.gateway.Trigger(ctx, request)
	s.audit.record(ctx, request.RequestID, "", domain.RelayKindTrigger, startTime, err)
	if err != nil {
		logrus.WithField("request_id", request.RequestID).Errorf("Webhook trigger failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRelayFailure, err)
	}
	return result, nil
}

// TestConnection func - Use case: probe the primary webhook
func (s *WebhookService) TestConnection(ctx context.Context, requestID string) bool {
	startTime := s.clock.Now()
	ok := s.gateway.PingTrigger(ctx)

	var err error
	if !ok {
		err = errors.New("webhook did not answer with 2xx")
	}
	s.audit.record(ctx, requestID, "", domain.RelayKindTest, startTime, err)
	return ok
}

// WebhookURL returns the primary webhook URL
func (s *WebhookService) WebhookURL() string {
	return s.gateway.TriggerWebhookURL()
}
