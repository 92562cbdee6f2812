package memory

import (
	"context"
	"sync"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

// Store is an in-memory SnapshotStore. Not persistent; suitable for tests
// and local development only.
type Store struct {
	mu       sync.RWMutex
	sessions []domain.Session
}

func NewStore() *Store {
	return &Store{}
}

// Put upserts a snapshot. New sessions go to the front; updates keep their
// position and preserve the originally recorded prompt.
func (s *Store) Put(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.sessions {
		if existing.ID == session.ID {
			session.Prompt = existing.Prompt
			s.sessions[i] = session
			return nil
		}
	}
	s.sessions = append([]domain.Session{session}, s.sessions...)
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Session(nil), s.sessions...), nil
}

func (s *Store) Delete(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	for _, existing := range s.sessions {
		if existing.ID != id {
			kept = append(kept, existing)
		}
	}
	s.sessions = kept
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	return nil
}
