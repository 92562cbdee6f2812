package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

// Store keeps the full history as one JSON array in a single named file,
// rewritten on every flush. Last write wins; the debounce layer above
// serializes writes per session id.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}
	return &Store{path: path}, nil
}

func (s *Store) read() ([]domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var sessions []domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		// An unreadable file is treated as empty history, not corruption.
		return nil, nil
	}
	return sessions, nil
}

func (s *Store) writeAll(sessions []domain.Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// Put upserts a snapshot and rewrites the whole array. New sessions are
// prepended so the array stays most-recent-first; updates preserve the
// originally recorded prompt.
func (s *Store) Put(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return err
	}

	updated := false
	for i, existing := range sessions {
		if existing.ID == session.ID {
			session.Prompt = existing.Prompt
			sessions[i] = session
			updated = true
			break
		}
	}
	if !updated {
		sessions = append([]domain.Session{session}, sessions...)
	}

	return s.writeAll(sessions)
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Delete(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return err
	}

	kept := sessions[:0]
	for _, existing := range sessions {
		if existing.ID != id {
			kept = append(kept, existing)
		}
	}
	return s.writeAll(kept)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing history file: %w", err)
	}
	return nil
}
