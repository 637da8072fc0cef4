package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/memory"
	"github.com/coursebuddy/coursebuddy/models"
)

type entry struct {
	turns     []models.ConversationTurn
	expiresAt time.Time
}

// Store is a process-local session store for tests and single-node dev
// runs. Expiry is evaluated lazily on read.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	// Now is the clock used for expiry checks; tests may replace it.
	Now func() time.Time
}

func NewInMemoryStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		Now:     time.Now,
	}
}

func (s *Store) Get(ctx context.Context, courseID int, sessionID string) ([]models.ConversationTurn, error) {
	key := memory.Key(courseID, sessionID)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, nil
	}
	out := make([]models.ConversationTurn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

func (s *Store) Save(ctx context.Context, courseID int, sessionID string, turns []models.ConversationTurn, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = memory.DefaultTTL
	}
	stored := make([]models.ConversationTurn, len(turns))
	copy(stored, turns)
	s.mu.Lock()
	s.entries[memory.Key(courseID, sessionID)] = entry{turns: stored, expiresAt: s.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(ctx context.Context, courseID int, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, memory.Key(courseID, sessionID))
	s.mu.Unlock()
	return nil
}
