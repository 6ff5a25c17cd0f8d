package application

import (
	"context"
	"sync"

	"n8n-chat-relay/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing

// MockRelayGateway implements output.RelayGateway for testing
type MockRelayGateway struct {
	RelayFunc       func(ctx context.Context, request domain.RelayRequest) (string, error)
	TriggerFunc     func(ctx context.Context, request domain.TriggerRequest) (interface{}, error)
	PingChatFunc    func(ctx context.Context) bool
	PingTriggerFunc func(ctx context.Context) bool

	mu sync.Mutex
	// Captured values for assertions
	RelayRequests []domain.RelayRequest
}

func (m *MockRelayGateway) Relay(ctx context.Context, request domain.RelayRequest) (string, error) {
	m.mu.Lock()
	m.RelayRequests = append(m.RelayRequests, request)
	m.mu.Unlock()
	if m.RelayFunc != nil {
		return m.RelayFunc(ctx, request)
	}
	return "assistant reply", nil
}

func (m *MockRelayGateway) Trigger(ctx context.Context, request domain.TriggerRequest) (interface{}, error) {
	if m.TriggerFunc != nil {
		return m.TriggerFunc(ctx, request)
	}
	return map[string]interface{}{"status": "ok"}, nil
}

func (m *MockRelayGateway) PingChat(ctx context.Context) bool {
	if m.PingChatFunc != nil {
		return m.PingChatFunc(ctx)
	}
	return true
}

func (m *MockRelayGateway) PingTrigger(ctx context.Context) bool {
	if m.PingTriggerFunc != nil {
		return m.PingTriggerFunc(ctx)
	}
	return true
}

func (m *MockRelayGateway) ChatWebhookURL() string {
	return "http://n8n.test/webhook/chat"
}

func (m *MockRelayGateway) TriggerWebhookURL() string {
	return "http://n8n.test/webhook/trigger"
}

// LastRelayRequest returns the most recent relay request
func (m *MockRelayGateway) LastRelayRequest() domain.RelayRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RelayRequests[len(m.RelayRequests)-1]
}

// MockRelayAuditRepository implements output.RelayAuditRepository for testing
type MockRelayAuditRepository struct {
	mock.Mock
}

func (m *MockRelayAuditRepository) Record(ctx context.Context, audit *domain.RelayAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockRelayAuditRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.RelayAudit, error) {
	args := m.Called(ctx, conversationID, limit)
	audits, _ := args.Get(0).([]domain.RelayAudit)
	return audits, args.Error(1)
}
