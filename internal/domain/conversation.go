package domain

import (
	"sync"
	"time"
)

// TurnRole identifies who produced a conversation turn
type TurnRole string

const (
	// TurnRoleUser - Message written by the caller
	TurnRoleUser TurnRole = "user"
	// TurnRoleAssistant - Reply returned by the automation engine
	TurnRoleAssistant TurnRole = "assistant"
)

// AnonymousOwner is used when a caller does not identify itself
const AnonymousOwner = "anonymous"

// ConversationTurn is one immutable entry of a conversation history
type ConversationTurn struct {
	Role      TurnRole
	Content   string
	CreatedAt time.Time
}

// SessionSnapshot is a point-in-time copy of a session's bookkeeping fields.
// It is what expiry predicates see, so they never touch the live session.
type SessionSnapshot struct {
	ID             string
	OwnerID        string
	CreatedAt      time.Time
	LastActivityAt time.Time
	TurnCount      int
}

// ConversationSession represents a chat conversation relayed to the automation engine.
// ID, OwnerID and CreatedAt never change after construction; turns and
// lastActivityAt are guarded by mu and only ever appended/advanced.
type ConversationSession struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time

	mu             sync.RWMutex
	lastActivityAt time.Time
	turns          []ConversationTurn
	evicted        bool
	inFlight       int
}

// NewConversationSession creates an empty session whose activity starts at now
func NewConversationSession(id, ownerID string, now time.Time) *ConversationSession {
	if ownerID == "" {
		ownerID = AnonymousOwner
	}
	return &ConversationSession{
		ID:             id,
		OwnerID:        ownerID,
		CreatedAt:      now,
		lastActivityAt: now,
		turns:          make([]ConversationTurn, 0),
	}
}

// LastActivityAt returns the time of the most recent append (or creation)
func (s *ConversationSession) LastActivityAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivityAt
}

// TurnCount returns the number of turns appended so far
func (s *ConversationSession) TurnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// IsExpired reports whether the session has been idle for longer than timeout at now
func (s *ConversationSession) IsExpired(now time.Time, timeout time.Duration) bool {
	return s.LastActivityAt().Before(now.Add(-timeout))
}

// Evicted reports whether the session has been dropped from its store
func (s *ConversationSession) Evicted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

// Evict marks the session as no longer owned by a store. Later appends fail.
func (s *ConversationSession) Evict() {
	s.mu.Lock()
	s.evicted = true
	s.mu.Unlock()
}

// Acquire pins the session for an operation in progress. Pinned sessions are
// skipped by EvictIf until every Acquire is matched by a Release.
// It returns false once the session has been evicted.
func (s *ConversationSession) Acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return false
	}
	s.inFlight++
	return true
}

// Release drops one pin taken by Acquire
func (s *ConversationSession) Release() {
	s.mu.Lock()
	if s.inFlight > 0 {
		s.inFlight--
	}
	s.mu.Unlock()
}

// InFlight returns the number of operations currently pinning the session
func (s *ConversationSession) InFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight
}

// EvictIf evaluates predicate against a snapshot while holding the session lock
// and evicts the session when it matches. No append can slip in between the
// decision and the eviction. Pinned sessions are never evicted here.
func (s *ConversationSession) EvictIf(predicate func(SessionSnapshot) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return true
	}
	if s.inFlight > 0 {
		return false
	}
	if !predicate(s.snapshotLocked()) {
		return false
	}
	s.evicted = true
	return true
}

// Append adds turns in order and advances lastActivityAt to now.
// All turns of one call land contiguously.
func (s *ConversationSession) Append(now time.Time, turns ...ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evicted {
		return ErrSessionNotInStore
	}

	s.turns = append(s.turns, turns...)
	if now.After(s.lastActivityAt) {
		s.lastActivityAt = now
	}
	return nil
}

// Window returns a copy of the most recent k turns, oldest first.
// Only the selected tail is copied, so the cost is proportional to k.
func (s *ConversationSession) Window(k int) []ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.turns)
	if k <= 0 || n == 0 {
		return []ConversationTurn{}
	}
	if k > n {
		k = n
	}

	window := make([]ConversationTurn, k)
	copy(window, s.turns[n-k:])
	return window
}

// History returns a copy of the full conversation history
func (s *ConversationSession) History() []ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]ConversationTurn, len(s.turns))
	copy(history, s.turns)
	return history
}

// Snapshot returns a consistent copy of the session's bookkeeping fields
func (s *ConversationSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *ConversationSession) snapshotLocked() SessionSnapshot {
	return SessionSnapshot{
		ID:             s.ID,
		OwnerID:        s.OwnerID,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.lastActivityAt,
		TurnCount:      len(s.turns),
	}
}

// AgeMinutes returns whole minutes elapsed since the session was created
func (s *ConversationSession) AgeMinutes(now time.Time) int64 {
	return int64(now.Sub(s.CreatedAt) / time.Minute)
}
