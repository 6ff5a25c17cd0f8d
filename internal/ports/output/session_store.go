package output

import "n8n-chat-relay/internal/domain"

// SessionStore interface - Output port
// Defines what the application needs for keeping conversation sessions.
// Implementations must be safe for concurrent use and must not serialize
// operations on different conversation ids behind a single lock.
type SessionStore interface {
	// Put inserts or overwrites the session stored under session.ID.
	// A session it replaces is evicted so stale holders cannot append to it.
	Put(session *domain.ConversationSession)

	// Get returns the session stored under id. It does not filter expired
	// sessions; expiry is the lifecycle manager's decision.
	Get(id string) (*domain.ConversationSession, bool)

	// RemoveIf removes every session whose snapshot matches predicate and
	// returns how many were removed. Sessions pinned with Acquire are kept.
	// It may run concurrently with Put and Get.
	RemoveIf(predicate func(domain.SessionSnapshot) bool) int

	// Len returns the number of stored sessions.
	Len() int
}
