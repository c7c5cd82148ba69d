package history

import (
	"context"
	"sync"

	"github.com/adjutant-ai/adjutant/internal/provider"
)

// SessionStore keeps the role-tagged message log for each session,
// trimmed to a bounded length.
type SessionStore interface {
	Messages(ctx context.Context, sessionID string) ([]provider.Message, error)
	Append(ctx context.Context, sessionID string, msg provider.Message) error
	Clear(ctx context.Context, sessionID string) error
}

// MemorySessionStore is the in-process default.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]provider.Message
	maxLen   int // 0 = no cap
}

// NewMemorySessionStore creates a store capping each session at maxLen
// messages (0 disables the cap).
func NewMemorySessionStore(maxLen int) *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]provider.Message), maxLen: maxLen}
}

func (s *MemorySessionStore) Messages(_ context.Context, sessionID string) ([]provider.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[sessionID]
	out := make([]provider.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemorySessionStore) Append(_ context.Context, sessionID string, msg provider.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.sessions[sessionID], msg)
	if s.maxLen > 0 && len(msgs) > s.maxLen {
		msgs = msgs[len(msgs)-s.maxLen:]
	}
	s.sessions[sessionID] = msgs
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
