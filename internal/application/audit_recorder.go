package application

import (
	"context"
	"time"

	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/output"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// auditRecorder writes relay audit rows. A nil repository disables it.
// Failures are logged and never reach the caller.
type auditRecorder struct {
	repo  output.RelayAuditRepository
	clock clockwork.Clock
}

func newAuditRecorder(repo output.RelayAuditRepository, clock clockwork.Clock) *auditRecorder {
	return &auditRecorder{repo: repo, clock: clock}
}

func (a *auditRecorder) record(ctx context.Context, requestID, conversationID string, kind domain.RelayKind, startedAt time.Time, relayErr error) {
	if a == nil || a.repo == nil {
		return
	}

	now := a.clock.Now()
	audit := &domain.RelayAudit{
		RequestID:      requestID,
		ConversationID: conversationID,
		Kind:           kind,
		Status:         domain.RelayStatusSuccess,
		DurationMs:     now.Sub(startedAt).Milliseconds(),
		CreatedAt:      &now,
	}
	if relayErr != nil {
		audit.Status = domain.RelayStatusFailure
		audit.Error = relayErr.Error()
	}

	// the request context may already be cancelled
	if err := a.repo.Record(context.WithoutCancel(ctx), audit); err != nil {
		logrus.WithField("request_id", requestID).Warnf("Failed to record relay audit: %v", err)
	}
}

func (a *auditRecorder) list(ctx context.Context, conversationID string, limit int) ([]domain.RelayAudit, error) {
	if a == nil || a.repo == nil {
		return nil, domain.ErrAuditDisabled
	}
	return a.repo.ListByConversation(ctx, conversationID, limit)
}
