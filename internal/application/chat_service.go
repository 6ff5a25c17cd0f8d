package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/output"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Default session configuration values
const (
	DefaultSessionTimeout = 60 * time.Minute
	DefaultContextWindow  = 10

	conversationIDPrefix = "conv-"
)

// ChatServiceConfig holds the session lifecycle settings
type ChatServiceConfig struct {
	Timeout time.Duration
	// ContextWindow is the number of turns relayed as context. nil or negative selects
	// DefaultContextWindow, 0 relays the message alone.
	ContextWindow *int
	SweepInterval time.Duration
}

// ChatService struct - Application service implementing the conversation use cases
type ChatService struct {
	store   output.SessionStore
	gateway output.RelayGateway
	audit   *auditRecorder
	clock   clockwork.Clock

	timeout       time.Duration
	contextWindow int
	sweepInterval time.Duration
}

// NewChatService func - Creates new chat service. auditRepo may be nil.
func NewChatService(store output.SessionStore, gateway output.RelayGateway, auditRepo output.RelayAuditRepository, clock clockwork.Clock, config ChatServiceConfig) *ChatService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSessionTimeout
	}
	contextWindow := DefaultContextWindow
	if config.ContextWindow != nil && *config.ContextWindow >= 0 {
		contextWindow = *config.ContextWindow
	}

	return &ChatService{
		store:         store,
		gateway:       gateway,
		audit:         newAuditRecorder(auditRepo, clock),
		clock:         clock,
		timeout:       config.Timeout,
		contextWindow: contextWindow,
		sweepInterval: config.SweepInterval,
	}
}

// StartNewConversation func - Use case: open an empty conversation and return its id
func (s *ChatService) StartNewConversation(ownerID string) (string, error) {
	session, err := s.startSession(ownerID)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

func (s *ChatService) startSession(ownerID string) (*domain.ConversationSession, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate conversation id: %w", err)
	}

	session := domain.NewConversationSession(conversationIDPrefix+id.String(), ownerID, s.clock.Now())
	s.store.Put(session)

	logrus.WithFields(logrus.Fields{
		"conversation_id": session.ID,
		"owner_id":        session.OwnerID,
	}).Info("Started new conversation")

	s.SweepExpired(s.timeout)
	return session, nil
}

// ResolveOrCreateSession func - Use case: return the live session for conversationID or start a new one.
// Unknown and expired ids are not errors.
func (s *ChatService) ResolveOrCreateSession(conversationID, ownerID string) (*domain.ConversationSession, error) {
	if conversationID != "" {
		if session, ok := s.liveSession(conversationID); ok {
			return session, nil
		}
		logrus.Infof("Conversation %s not found or expired, starting a new one", conversationID)
	}
	return s.startSession(ownerID)
}

// acquireSession resolves or starts a conversation and pins it so sweeps
// leave it alone until the caller releases it.
func (s *ChatService) acquireSession(conversationID, ownerID string) (*domain.ConversationSession, error) {
	for {
		session, err := s.ResolveOrCreateSession(conversationID, ownerID)
		if err != nil {
			return nil, err
		}
		if session.Acquire() {
			return session, nil
		}
		// swept between lookup and pin, the next lookup no longer finds it
		logrus.WithField("conversation_id", session.ID).Debug("Session swept before it could be pinned, resolving again")
	}
}

// liveSession returns the stored session for id unless it has expired
func (s *ChatService) liveSession(id string) (*domain.ConversationSession, bool) {
	session, ok := s.store.Get(id)
	if !ok || session.IsExpired(s.clock.Now(), s.timeout) {
		return nil, false
	}
	return session, true
}

// AppendTurn func - Use case: append one turn to a stored session
func (s *ChatService) AppendTurn(session *domain.ConversationSession, role domain.TurnRole, content string) error {
	if err := s.ensureStored(session); err != nil {
		return err
	}
	now := s.clock.Now()
	return s.checkAppend(session, session.Append(now, domain.ConversationTurn{Role: role, Content: content, CreatedAt: now}))
}

// AppendExchange func - Use case: append a user turn and its reply as one step
func (s *ChatService) AppendExchange(session *domain.ConversationSession, userContent, assistantContent string) error {
	if err := s.ensureStored(session); err != nil {
		return err
	}
	now := s.clock.Now()
	return s.checkAppend(session, session.Append(now,
		domain.ConversationTurn{Role: domain.TurnRoleUser, Content: userContent, CreatedAt: now},
		domain.ConversationTurn{Role: domain.TurnRoleAssistant, Content: assistantContent, CreatedAt: now},
	))
}

func (s *ChatService) ensureStored(session *domain.ConversationSession) error {
	if session == nil {
		return domain.ErrSessionNotInStore
	}
	stored, ok := s.store.Get(session.ID)
	if !ok || stored != session {
		return s.checkAppend(session, domain.ErrSessionNotInStore)
	}
	return nil
}

func (s *ChatService) checkAppend(session *domain.ConversationSession, err error) error {
	if err != nil {
		logrus.WithField("conversation_id", session.ID).Errorf("Append rejected: %v", err)
	}
	return err
}

// SweepExpired func - Use case: remove every session idle for longer than timeout.
// Panics raised while sweeping are recovered and logged.
func (s *ChatService) SweepExpired(timeout time.Duration) (removed int) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Session sweep failed: %v", r)
			removed = 0
		}
	}()

	cutoff := s.clock.Now().Add(-timeout)
	removed = s.store.RemoveIf(func(snapshot domain.SessionSnapshot) bool {
		return snapshot.LastActivityAt.Before(cutoff)
	})
	if removed > 0 {
		logrus.Infof("Swept %d expired conversations, %d remaining", removed, s.store.Len())
	}
	return removed
}

// GetConversationHistory func - Use case: snapshot of a live conversation
func (s *ChatService) GetConversationHistory(conversationID string) (*domain.ConversationHistory, error) {
	session, ok := s.liveSession(conversationID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, conversationID)
	}

	snapshot := session.Snapshot()
	turns := session.History()
	return &domain.ConversationHistory{
		ConversationID:    session.ID,
		OwnerID:           session.OwnerID,
		Turns:             turns,
		MessageCount:      len(turns),
		CreatedAt:         snapshot.CreatedAt,
		LastActivityAt:    snapshot.LastActivityAt,
		SessionAgeMinutes: session.AgeMinutes(s.clock.Now()),
	}, nil
}

// SendMessage func - Use case: relay one message with its context and record the exchange
func (s *ChatService) SendMessage(ctx context.Context, request domain.SendMessageRequest) (*domain.SendMessageResponse, error) {
	session, err := s.acquireSession(request.ConversationID, request.OwnerID)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	window := session.Window(s.contextWindow)
	relayRequest := domain.RelayRequest{
		Message:           request.Message,
		Context:           window,
		ConversationID:    session.ID,
		OwnerID:           session.OwnerID,
		UserID:            request.OwnerID,
		RequestID:         request.RequestID,
		MessageCount:      session.TurnCount(),
		SessionAgeMinutes: session.AgeMinutes(s.clock.Now()),
	}

	logger := logrus.WithFields(logrus.Fields{
		"request_id":      request.RequestID,
		"conversation_id": session.ID,
		"context_turns":   len(window),
	})
	logger.Info("Relaying chat message")

	startTime := s.clock.Now()
	reply, err := s.gateway.Relay(ctx, relayRequest)
	s.audit.record(ctx, request.RequestID, session.ID, domain.RelayKindChat, startTime, err)
	if err != nil {
		logger.Errorf("Relay failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRelayFailure, err)
	}

	if err := s.AppendExchange(session, request.Message, reply); err != nil {
		return nil, err
	}

	return &domain.SendMessageResponse{
		Reply:          reply,
		ConversationID: session.ID,
	}, nil
}

// RelayAudit func - Use case: recorded relay round trips of a conversation, newest first.
// The conversation does not need to be live: audit rows outlive expired sessions.
func (s *ChatService) RelayAudit(ctx context.Context, conversationID string, limit int) ([]domain.RelayAudit, error) {
	audits, err := s.audit.list(ctx, conversationID, limit)
	if err != nil {
		if !errors.Is(err, domain.ErrAuditDisabled) {
			logrus.WithField("conversation_id", conversationID).Errorf("Failed to list relay audit: %v", err)
		}
		return nil, err
	}
	return audits, nil
}

// TestConnection func - Use case: probe the chat webhook
func (s *ChatService) TestConnection(ctx context.Context, requestID string) bool {
	startTime := s.clock.Now()
	ok := s.gateway.PingChat(ctx)

	var err error
	if !ok {
		err = errors.New("chat webhook did not answer with 2xx")
	}
	s.audit.record(ctx, requestID, "", domain.RelayKindTest, startTime, err)
	return ok
}

// Stats func - Use case: chat subsystem statistics
func (s *ChatService) Stats() domain.SessionStats {
	return domain.SessionStats{
		ActiveSessions: s.store.Len(),
		Timeout:        s.timeout,
		ContextWindow:  s.contextWindow,
		SweepInterval:  s.sweepInterval,
	}
}

// ChatWebhookURL returns the webhook chat messages are relayed to
func (s *ChatService) ChatWebhookURL() string {
	return s.gateway.ChatWebhookURL()
}

// Timeout returns the configured idle timeout
func (s *ChatService) Timeout() time.Duration {
	return s.timeout
}
