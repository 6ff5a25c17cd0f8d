package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"n8n-chat-relay/internal/adapters/output/memory"
	"n8n-chat-relay/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Default session configuration values for tests
const defaultTestTimeout = 30 * time.Minute
const defaultTestWindow = 4

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type chatFixture struct {
	service *ChatService
	store   *memory.MemorySessionStore
	gateway *MockRelayGateway
	clock   *clockwork.FakeClock
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	store := memory.NewMemorySessionStore(8)
	gateway := &MockRelayGateway{}
	clock := clockwork.NewFakeClockAt(t0)
	window := defaultTestWindow
	service := NewChatService(store, gateway, nil, clock, ChatServiceConfig{
		Timeout:       defaultTestTimeout,
		ContextWindow: &window,
	})
	return &chatFixture{service: service, store: store, gateway: gateway, clock: clock}
}

// TestNewChatServiceDefaults tests fallback configuration values
func TestNewChatServiceDefaults(t *testing.T) {
	service := NewChatService(memory.NewMemorySessionStore(1), &MockRelayGateway{}, nil, nil, ChatServiceConfig{})

	stats := service.Stats()
	assert.Equal(t, DefaultSessionTimeout, stats.Timeout)
	assert.Equal(t, DefaultContextWindow, stats.ContextWindow)
	assert.Zero(t, stats.SweepInterval)

	negative := -1
	service = NewChatService(memory.NewMemorySessionStore(1), &MockRelayGateway{}, nil, nil, ChatServiceConfig{ContextWindow: &negative})
	assert.Equal(t, DefaultContextWindow, service.Stats().ContextWindow)
}

// TestSendMessageWithZeroContextWindow tests that a window of 0 relays the message without context
func TestSendMessageWithZeroContextWindow(t *testing.T) {
	gateway := &MockRelayGateway{}
	zero := 0
	service := NewChatService(memory.NewMemorySessionStore(1), gateway, nil, clockwork.NewFakeClockAt(t0), ChatServiceConfig{ContextWindow: &zero})
	assert.Equal(t, 0, service.Stats().ContextWindow)

	id, err := service.StartNewConversation("alice")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := service.SendMessage(context.Background(), domain.SendMessageRequest{
			Message:        fmt.Sprintf("q%d", i),
			ConversationID: id,
		})
		require.NoError(t, err)
	}

	relayed := gateway.LastRelayRequest()
	assert.Empty(t, relayed.Context)
	assert.Equal(t, "q1", relayed.Message)
	assert.Equal(t, 2, relayed.MessageCount)

	history, err := service.GetConversationHistory(id)
	require.NoError(t, err)
	assert.Len(t, history.Turns, 4, "history is still kept in full")
}

// TestStartNewConversation tests id format and storage
func TestStartNewConversation(t *testing.T) {
	f := newChatFixture(t)

	id, err := f.service.StartNewConversation("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "conv-"), "unexpected id %s", id)

	session, ok := f.store.Get(id)
	require.True(t, ok)
	assert.Equal(t, domain.AnonymousOwner, session.OwnerID)
	assert.Equal(t, t0, session.CreatedAt)
	assert.Equal(t, t0, session.LastActivityAt())
	assert.Zero(t, session.TurnCount())

	other, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

// TestResolveOrCreateSessionRoundTrip tests that a started conversation resolves to itself
func TestResolveOrCreateSessionRoundTrip(t *testing.T) {
	f := newChatFixture(t)

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)
	stored, _ := f.store.Get(id)

	resolved, err := f.service.ResolveOrCreateSession(id, "bob")
	require.NoError(t, err)
	assert.Same(t, stored, resolved)
	assert.Equal(t, "alice", resolved.OwnerID)
}

// TestResolveOrCreateSessionUnknownID tests that unknown ids start a new stored conversation
func TestResolveOrCreateSessionUnknownID(t *testing.T) {
	f := newChatFixture(t)

	for _, id := range []string{"", "conv-does-not-exist"} {
		session, err := f.service.ResolveOrCreateSession(id, "alice")
		require.NoError(t, err)
		assert.NotEqual(t, id, session.ID)

		stored, ok := f.store.Get(session.ID)
		require.True(t, ok)
		assert.Same(t, session, stored)
	}
}

// TestResolveOrCreateSessionExpiredID tests that an expired conversation is replaced
func TestResolveOrCreateSessionExpiredID(t *testing.T) {
	f := newChatFixture(t)

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)

	f.clock.Advance(defaultTestTimeout + time.Second)

	session, err := f.service.ResolveOrCreateSession(id, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, id, session.ID)
}

// TestSweepExpiredRemovesExactlyStaleSessions tests the LastActivityAt < now - timeout rule
func TestSweepExpiredRemovesExactlyStaleSessions(t *testing.T) {
	f := newChatFixture(t)
	now := t0.Add(2 * time.Hour)
	cutoff := now.Add(-defaultTestTimeout)

	offsets := []time.Duration{-time.Hour, -time.Second, 0, time.Second, time.Hour}
	for i, offset := range offsets {
		f.store.Put(domain.NewConversationSession(fmt.Sprintf("conv-%d", i), "alice", cutoff.Add(offset)))
	}
	f.clock.Advance(now.Sub(t0))

	removed := f.service.SweepExpired(defaultTestTimeout)

	assert.Equal(t, 2, removed)
	for i, offset := range offsets {
		_, ok := f.store.Get(fmt.Sprintf("conv-%d", i))
		assert.Equal(t, offset >= 0, ok, "session with offset %v", offset)
	}
}

// TestStartNewConversationSweepsExpired tests the opportunistic sweep
func TestStartNewConversationSweepsExpired(t *testing.T) {
	f := newChatFixture(t)

	old, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)

	f.clock.Advance(defaultTestTimeout + time.Minute)

	fresh, err := f.service.StartNewConversation("bob")
	require.NoError(t, err)

	_, ok := f.store.Get(old)
	assert.False(t, ok, "expected expired conversation to be swept")
	_, ok = f.store.Get(fresh)
	assert.True(t, ok)
	assert.Equal(t, 1, f.service.Stats().ActiveSessions)
}

type panickingStore struct {
	*memory.MemorySessionStore
}

func (p panickingStore) RemoveIf(func(domain.SessionSnapshot) bool) int {
	panic("store exploded")
}

// TestSweepExpiredRecoversPanics tests that sweep failures never reach the caller
func TestSweepExpiredRecoversPanics(t *testing.T) {
	store := panickingStore{memory.NewMemorySessionStore(1)}
	service := NewChatService(store, &MockRelayGateway{}, nil, clockwork.NewFakeClockAt(t0), ChatServiceConfig{})

	assert.NotPanics(t, func() {
		assert.Zero(t, service.SweepExpired(time.Minute))
	})

	id, err := service.StartNewConversation("alice")
	require.NoError(t, err)
	_, ok := store.Get(id)
	assert.True(t, ok)
}

// TestSendMessageRecordsExchange tests the hi/hello scenario
func TestSendMessageRecordsExchange(t *testing.T) {
	f := newChatFixture(t)
	f.gateway.RelayFunc = func(ctx context.Context, request domain.RelayRequest) (string, error) {
		return "hello", nil
	}

	id, err := f.service.StartNewConversation("u1")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	response, err := f.service.SendMessage(context.Background(), domain.SendMessageRequest{
		Message:        "hi",
		ConversationID: id,
		OwnerID:        "u1",
		RequestID:      "req-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", response.Reply)
	assert.Equal(t, id, response.ConversationID)

	history, err := f.service.GetConversationHistory(id)
	require.NoError(t, err)
	require.Len(t, history.Turns, 2)
	assert.Equal(t, 2, history.MessageCount)
	assert.Equal(t, domain.TurnRoleUser, history.Turns[0].Role)
	assert.Equal(t, "hi", history.Turns[0].Content)
	assert.Equal(t, domain.TurnRoleAssistant, history.Turns[1].Role)
	assert.Equal(t, "hello", history.Turns[1].Content)
	assert.Equal(t, t0.Add(time.Minute), history.LastActivityAt)
	assert.Equal(t, "u1", history.OwnerID)
	assert.EqualValues(t, 1, history.SessionAgeMinutes)

	relayed := f.gateway.LastRelayRequest()
	assert.Equal(t, "hi", relayed.Message)
	assert.Equal(t, "req-1", relayed.RequestID)
	assert.Empty(t, relayed.Context)
}

// TestSendMessageUnknownConversationStartsNewOne tests that an unknown id is not an error
func TestSendMessageUnknownConversationStartsNewOne(t *testing.T) {
	f := newChatFixture(t)

	response, err := f.service.SendMessage(context.Background(), domain.SendMessageRequest{
		Message:        "hi",
		ConversationID: "conv-gone",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "conv-gone", response.ConversationID)

	history, err := f.service.GetConversationHistory(response.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 2, history.MessageCount)
	assert.Equal(t, domain.AnonymousOwner, history.OwnerID)
}

// TestSendMessageRelaysContextWindow tests that only the newest turns are sent
func TestSendMessageRelaysContextWindow(t *testing.T) {
	f := newChatFixture(t)
	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.service.SendMessage(context.Background(), domain.SendMessageRequest{
			Message:        fmt.Sprintf("q%d", i),
			ConversationID: id,
		})
		require.NoError(t, err)
	}

	relayed := f.gateway.LastRelayRequest()
	require.Len(t, relayed.Context, defaultTestWindow)
	assert.Equal(t, "q0", relayed.Context[0].Content)
	assert.Equal(t, "q1", relayed.Context[defaultTestWindow-2].Content)
	assert.Equal(t, "assistant reply", relayed.Context[defaultTestWindow-1].Content)
	assert.Equal(t, 4, relayed.MessageCount)
	assert.Equal(t, "q2", relayed.Message)
}

// TestSendMessageRelayFailureLeavesSessionUntouched tests that nothing is appended on failure
func TestSendMessageRelayFailureLeavesSessionUntouched(t *testing.T) {
	f := newChatFixture(t)
	f.gateway.RelayFunc = func(ctx context.Context, request domain.RelayRequest) (string, error) {
		return "", fmt.Errorf("failed to send chat message: %w", domain.ErrRelayUnavailable)
	}

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	_, err = f.service.SendMessage(context.Background(), domain.SendMessageRequest{Message: "hi", ConversationID: id})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRelayFailure))
	assert.True(t, errors.Is(err, domain.ErrRelayUnavailable))

	history, err := f.service.GetConversationHistory(id)
	require.NoError(t, err)
	assert.Zero(t, history.MessageCount)
	assert.Equal(t, t0, history.LastActivityAt)
}

// TestSendMessageSurvivesSweepDuringRelay tests that a conversation in flight is not swept
// while another caller's conversation start runs the expiry sweep
func TestSendMessageSurvivesSweepDuringRelay(t *testing.T) {
	f := newChatFixture(t)

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)
	f.clock.Advance(defaultTestTimeout - time.Second)

	f.gateway.RelayFunc = func(ctx context.Context, request domain.RelayRequest) (string, error) {
		// the relay is slow enough for the conversation to pass its idle timeout
		f.clock.Advance(2 * time.Second)
		_, err := f.service.StartNewConversation("bob")
		require.NoError(t, err)
		return "hello", nil
	}

	response, err := f.service.SendMessage(context.Background(), domain.SendMessageRequest{
		Message:        "hi",
		ConversationID: id,
		OwnerID:        "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, id, response.ConversationID)
	assert.Equal(t, "hello", response.Reply)

	session, ok := f.store.Get(id)
	require.True(t, ok, "conversation must survive the sweep")
	assert.Equal(t, 2, session.TurnCount())
	assert.Zero(t, session.InFlight())
	assert.Equal(t, f.clock.Now(), session.LastActivityAt())

	// once released, an idle conversation is swept as usual
	f.clock.Advance(defaultTestTimeout + time.Second)
	f.service.SweepExpired(defaultTestTimeout)
	_, ok = f.store.Get(id)
	assert.False(t, ok)
}

// TestConcurrentSendMessageWithSweeps tests that sweeps running during many in-flight sends never drop one
func TestConcurrentSendMessageWithSweeps(t *testing.T) {
	f := newChatFixture(t)
	f.gateway.RelayFunc = func(ctx context.Context, request domain.RelayRequest) (string, error) {
		// push every conversation past its timeout and sweep while this relay is in flight
		f.clock.Advance(defaultTestTimeout + time.Second)
		f.service.SweepExpired(defaultTestTimeout)
		return "re:" + request.Message, nil
	}

	const senders = 40
	responses := make([]*domain.SendMessageResponse, senders)
	var g errgroup.Group
	for i := 0; i < senders; i++ {
		i := i
		g.Go(func() error {
			id, err := f.service.StartNewConversation("alice")
			if err != nil {
				return err
			}
			response, err := f.service.SendMessage(context.Background(), domain.SendMessageRequest{
				Message:        fmt.Sprintf("m%d", i),
				ConversationID: id,
			})
			responses[i] = response
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, response := range responses {
		require.NotNil(t, response)
		assert.Equal(t, fmt.Sprintf("re:m%d", i), response.Reply)
	}
}

// TestSendMessageReleasesSessionAfterFailure tests that a failed relay does not leave the session pinned
func TestSendMessageReleasesSessionAfterFailure(t *testing.T) {
	f := newChatFixture(t)
	f.gateway.RelayFunc = func(ctx context.Context, request domain.RelayRequest) (string, error) {
		return "", domain.ErrRelayTimeout
	}

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)
	_, err = f.service.SendMessage(context.Background(), domain.SendMessageRequest{Message: "hi", ConversationID: id})
	require.ErrorIs(t, err, domain.ErrRelayFailure)

	session, ok := f.store.Get(id)
	require.True(t, ok)
	assert.Zero(t, session.InFlight())
}

// TestSendMessageRelaysCallerUserID tests that the caller's user id is relayed, not the session owner
func TestSendMessageRelaysCallerUserID(t *testing.T) {
	f := newChatFixture(t)

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)

	_, err = f.service.SendMessage(context.Background(), domain.SendMessageRequest{Message: "hi", ConversationID: id, OwnerID: "bob"})
	require.NoError(t, err)

	relayed := f.gateway.LastRelayRequest()
	assert.Equal(t, "alice", relayed.OwnerID)
	assert.Equal(t, "bob", relayed.UserID)
}

// TestExpiredConversationIsSweptAndNotFound tests creation at T0 and sweep after the timeout
func TestExpiredConversationIsSweptAndNotFound(t *testing.T) {
	f := newChatFixture(t)

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)

	f.clock.Advance(defaultTestTimeout + time.Second)
	assert.Equal(t, 1, f.service.SweepExpired(defaultTestTimeout))

	_, ok := f.store.Get(id)
	assert.False(t, ok)

	_, err = f.service.GetConversationHistory(id)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

// TestGetConversationHistoryHidesExpiredBeforeSweep tests that lookups filter expiry themselves
func TestGetConversationHistoryHidesExpiredBeforeSweep(t *testing.T) {
	f := newChatFixture(t)

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)

	f.clock.Advance(defaultTestTimeout)
	_, err = f.service.GetConversationHistory(id)
	assert.NoError(t, err, "session exactly at the timeout is still live")

	f.clock.Advance(time.Second)
	_, err = f.service.GetConversationHistory(id)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

// TestAppendTurnRequiresStoredSession tests the precondition on appends
func TestAppendTurnRequiresStoredSession(t *testing.T) {
	f := newChatFixture(t)

	orphan := domain.NewConversationSession("conv-orphan", "alice", t0)
	assert.ErrorIs(t, f.service.AppendTurn(orphan, domain.TurnRoleUser, "hi"), domain.ErrSessionNotInStore)
	assert.ErrorIs(t, f.service.AppendTurn(nil, domain.TurnRoleUser, "hi"), domain.ErrSessionNotInStore)

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)
	session, _ := f.store.Get(id)
	require.NoError(t, f.service.AppendTurn(session, domain.TurnRoleUser, "hi"))

	// replaced by a different session under the same id
	f.store.Put(domain.NewConversationSession(id, "alice", t0))
	assert.ErrorIs(t, f.service.AppendExchange(session, "q", "a"), domain.ErrSessionNotInStore)
	assert.Equal(t, 1, session.TurnCount())
}

// TestAppendTurnAdvancesActivity tests the timestamps of appended turns
func TestAppendTurnAdvancesActivity(t *testing.T) {
	f := newChatFixture(t)
	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)
	session, _ := f.store.Get(id)

	f.clock.Advance(5 * time.Minute)
	require.NoError(t, f.service.AppendTurn(session, domain.TurnRoleUser, "hi"))

	assert.Equal(t, t0.Add(5*time.Minute), session.LastActivityAt())
	assert.Equal(t, t0.Add(5*time.Minute), session.History()[0].CreatedAt)
}

// TestConcurrentSendMessageKeepsExchangesTogether tests no lost turns under contention
func TestConcurrentSendMessageKeepsExchangesTogether(t *testing.T) {
	f := newChatFixture(t)
	f.gateway.RelayFunc = func(ctx context.Context, request domain.RelayRequest) (string, error) {
		return "re:" + request.Message, nil
	}

	id, err := f.service.StartNewConversation("alice")
	require.NoError(t, err)

	const senders = 50
	var g errgroup.Group
	for i := 0; i < senders; i++ {
		message := fmt.Sprintf("m%d", i)
		g.Go(func() error {
			_, err := f.service.SendMessage(context.Background(), domain.SendMessageRequest{Message: message, ConversationID: id})
			return err
		})
	}
	require.NoError(t, g.Wait())

	history, err := f.service.GetConversationHistory(id)
	require.NoError(t, err)
	require.Equal(t, senders*2, history.MessageCount)

	seen := make(map[string]bool)
	for i := 0; i < len(history.Turns); i += 2 {
		q, a := history.Turns[i], history.Turns[i+1]
		require.Equal(t, domain.TurnRoleUser, q.Role)
		require.Equal(t, domain.TurnRoleAssistant, a.Role)
		require.Equal(t, "re:"+q.Content, a.Content)
		seen[q.Content] = true
	}
	assert.Len(t, seen, senders)
}

// TestConcurrentStartAndSweep tests that live conversations survive concurrent sweeps
func TestConcurrentStartAndSweep(t *testing.T) {
	f := newChatFixture(t)

	var g errgroup.Group
	ids := make([]string, 100)
	for i := range ids {
		i := i
		g.Go(func() error {
			id, err := f.service.StartNewConversation("alice")
			ids[i] = id
			return err
		})
	}
	g.Go(func() error {
		for i := 0; i < 20; i++ {
			f.service.SweepExpired(defaultTestTimeout)
		}
		return nil
	})
	require.NoError(t, g.Wait())

	for _, id := range ids {
		_, ok := f.store.Get(id)
		assert.True(t, ok, "expected %s to survive", id)
	}
}

// TestSendMessageRecordsAudit tests audit rows for successful and failed relays
func TestSendMessageRecordsAudit(t *testing.T) {
	store := memory.NewMemorySessionStore(4)
	gateway := &MockRelayGateway{}
	auditRepo := &MockRelayAuditRepository{}
	service := NewChatService(store, gateway, auditRepo, clockwork.NewFakeClockAt(t0), ChatServiceConfig{})

	auditRepo.On("Record", mock.Anything, mock.MatchedBy(func(a *domain.RelayAudit) bool {
		return a.Kind == domain.RelayKindChat && a.Status == domain.RelayStatusSuccess && a.RequestID == "req-ok"
	})).Return(nil).Once()
	auditRepo.On("Record", mock.Anything, mock.MatchedBy(func(a *domain.RelayAudit) bool {
		return a.Kind == domain.RelayKindChat && a.Status == domain.RelayStatusFailure && a.Error != ""
	})).Return(errors.New("database down")).Once()

	_, err := service.SendMessage(context.Background(), domain.SendMessageRequest{Message: "hi", RequestID: "req-ok"})
	require.NoError(t, err)

	gateway.RelayFunc = func(ctx context.Context, request domain.RelayRequest) (string, error) {
		return "", domain.ErrRelayTimeout
	}
	_, err = service.SendMessage(context.Background(), domain.SendMessageRequest{Message: "hi", RequestID: "req-fail"})
	assert.ErrorIs(t, err, domain.ErrRelayFailure)

	auditRepo.AssertExpectations(t)
}

// TestChatTestConnection tests the probe delegation
func TestChatTestConnection(t *testing.T) {
	f := newChatFixture(t)
	assert.True(t, f.service.TestConnection(context.Background(), "req-1"))

	f.gateway.PingChatFunc = func(ctx context.Context) bool { return false }
	assert.False(t, f.service.TestConnection(context.Background(), "req-2"))
	assert.Equal(t, "http://n8n.test/webhook/chat", f.service.ChatWebhookURL())
}

// TestChatStats tests the statistics snapshot
func TestChatStats(t *testing.T) {
	f := newChatFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.service.StartNewConversation("alice")
		require.NoError(t, err)
	}

	stats := f.service.Stats()
	assert.Equal(t, 3, stats.ActiveSessions)
	assert.Equal(t, defaultTestTimeout, stats.Timeout)
	assert.Equal(t, defaultTestWindow, stats.ContextWindow)
}

// TestRelayAudit tests listing the audit trail through the repository
func TestRelayAudit(t *testing.T) {
	auditRepo := &MockRelayAuditRepository{}
	rows := []domain.RelayAudit{{RequestID: "req-1", ConversationID: "conv-1", Kind: domain.RelayKindChat, Status: domain.RelayStatusSuccess}}
	auditRepo.On("ListByConversation", mock.Anything, "conv-1", 10).Return(rows, nil).Once()
	auditRepo.On("ListByConversation", mock.Anything, "conv-broken", 10).Return(nil, errors.New("database down")).Once()

	service := NewChatService(memory.NewMemorySessionStore(1), &MockRelayGateway{}, auditRepo, clockwork.NewFakeClockAt(t0), ChatServiceConfig{})

	audits, err := service.RelayAudit(context.Background(), "conv-1", 10)
	require.NoError(t, err)
	assert.Equal(t, rows, audits)

	_, err = service.RelayAudit(context.Background(), "conv-broken", 10)
	assert.EqualError(t, err, "database down")

	auditRepo.AssertExpectations(t)
}

// TestRelayAuditDisabled tests the use case without an audit repository
func TestRelayAuditDisabled(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.RelayAudit(context.Background(), "conv-1", 10)
	assert.ErrorIs(t, err, domain.ErrAuditDisabled)
}
