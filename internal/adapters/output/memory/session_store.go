package memory

import (
	"hash/fnv"
	"sync"

	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/output"
)

// Compile-time check to ensure MemorySessionStore implements SessionStore interface
var _ output.SessionStore = (*MemorySessionStore)(nil)

// DefaultShardCount is used when the configured shard count is not positive
const DefaultShardCount = 32

// sessionShard holds one slice of the key space behind its own lock
type sessionShard struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ConversationSession
}

// MemorySessionStore struct - Output adapter for in-memory session storage
// Sessions are spread over a fixed number of shards keyed by an FNV-1a hash of
// the conversation id, so operations on different conversations rarely share a lock.
type MemorySessionStore struct {
	shards []*sessionShard
}

// NewMemorySessionStore creates a new in-memory session store with shardCount shards.
func NewMemorySessionStore(shardCount int) *MemorySessionStore {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}

	shards := make([]*sessionShard, shardCount)
	for i := range shards {
		shards[i] = &sessionShard{sessions: make(map[string]*domain.ConversationSession)}
	}

	return &MemorySessionStore{shards: shards}
}

// ShardCount returns the number of shards backing the store.
func (m *MemorySessionStore) ShardCount() int {
	return len(m.shards)
}

func (m *MemorySessionStore) shardFor(id string) *sessionShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// Put stores session under its ID, evicting any different session it replaces.
func (m *MemorySessionStore) Put(session *domain.ConversationSession) {
	shard := m.shardFor(session.ID)

	shard.mu.Lock()
	previous, exists := shard.sessions[session.ID]
	shard.sessions[session.ID] = session
	shard.mu.Unlock()

	if exists && previous != session {
		previous.Evict()
	}
}

// Get returns the session stored under id.
func (m *MemorySessionStore) Get(id string) (*domain.ConversationSession, bool) {
	shard := m.shardFor(id)

	shard.mu.RLock()
	session, exists := shard.sessions[id]
	shard.mu.RUnlock()

	return session, exists
}

// RemoveIf walks the shards one at a time and drops every session matching predicate.
// The predicate runs under the session's own lock (see ConversationSession.EvictIf),
// so a concurrent append either happens-before the decision or is rejected.
// Acquired sessions are skipped.
func (m *MemorySessionStore) RemoveIf(predicate func(domain.SessionSnapshot) bool) int {
	removed := 0

	for _, shard := range m.shards {
		shard.mu.Lock()
		for id, session := range shard.sessions {
			if session.EvictIf(predicate) {
				delete(shard.sessions, id)
				removed++
			}
		}
		shard.mu.Unlock()
	}

	return removed
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	total := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		total += len(shard.sessions)
		shard.mu.RUnlock()
	}
	return total
}
