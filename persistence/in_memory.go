package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/chatmesh/core"
)

// InMemoryStore is a core.ContextStore backed by process memory. Contexts
// and transcripts vanish when the process exits. Safe for concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]*core.ConversationContext
	history  map[string][]core.ChatMessage
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		contexts: make(map[string]*core.ConversationContext),
		history:  make(map[string][]core.ChatMessage),
	}
}

// LoadContext returns a deep copy of the stored context for userID, or
// core.ErrNotFound if the user is unknown.
func (s *InMemoryStore) LoadContext(_ context.Context, userID string) (*core.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convo, ok := s.contexts[userID]
	if !ok {
		return nil, core.ErrNotFound
	}

	return convo.Clone(), nil
}

// SaveContext stores a deep copy of the context so later caller mutations
// don't leak into the store.
func (s *InMemoryStore) SaveContext(_ context.Context, userID string, convo *core.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contexts[userID] = convo.Clone()

	return nil
}

// AppendMessage records a chat message in the user's transcript.
func (s *InMemoryStore) AppendMessage(_ context.Context, userID, text, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[userID] = append(s.history[userID], core.ChatMessage{
		UserID:    userID,
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

// RecentHistory returns up to limit of the user's most recent messages in
// chronological order. A limit <= 0 returns the full transcript.
func (s *InMemoryStore) RecentHistory(_ context.Context, userID string, limit int) ([]core.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.history[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]core.ChatMessage, len(msgs))
	copy(out, msgs)

	return out, nil
}

// PurgeUser removes all stored state for a user.
func (s *InMemoryStore) PurgeUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.contexts, userID)
	delete(s.history, userID)

	return nil
}

// Close implements core.ContextStore. No-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
