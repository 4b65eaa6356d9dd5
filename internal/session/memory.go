package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory with a TTL. A cleanup
// routine drops sessions that were abandoned mid-conversation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore creates the store and starts the cleanup routine.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	m := &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
	go m.cleanupExpired()
	return m
}

func (m *MemoryStore) Get(ctx context.Context, phone string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[phone]
	if !exists {
		return nil, nil
	}
	if time.Since(s.UpdatedAt) > m.ttl {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *s
	copied.UpdatedAt = time.Now()
	m.sessions[s.Phone] = &copied
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, phone)
	return nil
}

// cleanupExpired runs periodically to drop abandoned sessions.
func (m *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		for phone, s := range m.sessions {
			if time.Since(s.UpdatedAt) > m.ttl {
				delete(m.sessions, phone)
			}
		}
		m.mu.Unlock()
	}
}
