package history

import (
	"context"
	"sync"
	"time"

	"github.com/piyuindia4/ai-slides/internal/domain"
	"github.com/piyuindia4/ai-slides/internal/observability"
)

// debounceDelay is the quiet interval after which a pending write flushes.
// Rapid successive updates to the same session coalesce into one write.
const debounceDelay = 500 * time.Millisecond

// Service persists stable session snapshots. Writes are debounced per
// session id through a single-slot pending buffer and skipped entirely when
// the (id, message count, prompt, slide count) tuple has not changed since
// the last persisted write.
type Service struct {
	store domain.SnapshotStore
	delay time.Duration

	mu        sync.Mutex
	pending   map[domain.SessionID]*pendingWrite
	lastSaved map[domain.SessionID]domain.SaveTuple
}

type pendingWrite struct {
	session domain.Session
	timer   *time.Timer
}

func NewService(store domain.SnapshotStore) *Service {
	return &Service{
		store:     store,
		delay:     debounceDelay,
		pending:   make(map[domain.SessionID]*pendingWrite),
		lastSaved: make(map[domain.SessionID]domain.SaveTuple),
	}
}

// Save schedules a debounced write of the snapshot. Incomplete sessions and
// snapshots whose save tuple matches the last persisted write are ignored.
func (s *Service) Save(session domain.Session) {
	if !session.Complete() {
		return
	}

	tuple := session.Tuple()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSaved[session.ID]; ok && last == tuple {
		return
	}

	if pw, ok := s.pending[session.ID]; ok {
		// Last value wins; restart the quiet interval.
		pw.session = session
		pw.timer.Reset(s.delay)
		return
	}

	id := session.ID
	pw := &pendingWrite{session: session}
	pw.timer = time.AfterFunc(s.delay, func() { s.flush(id) })
	s.pending[id] = pw
}

func (s *Service) flush(id domain.SessionID) {
	s.mu.Lock()
	pw, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	session := pw.session
	s.mu.Unlock()

	s.write(session)
}

func (s *Service) write(session domain.Session) {
	log := observability.Logger().With("session_id", session.ID)

	if err := s.store.Put(context.Background(), session); err != nil {
		// Leave lastSaved untouched so the next Save retries.
		log.Error("failed to persist session", "error", err)
		return
	}

	s.mu.Lock()
	s.lastSaved[session.ID] = session.Tuple()
	s.mu.Unlock()

	log.Info("session persisted",
		"messages", len(session.Messages),
		"slides", len(session.Deck))
}

// Close flushes every pending write synchronously.
func (s *Service) Close() {
	s.mu.Lock()
	drained := make([]domain.Session, 0, len(s.pending))
	for id, pw := range s.pending {
		pw.timer.Stop()
		drained = append(drained, pw.session)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, session := range drained {
		s.write(session)
	}
}

// Load returns all persisted sessions, most recent first. Entries missing
// an id or prompt are dropped rather than surfaced as corruption errors.
func (s *Service) Load(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	valid := make([]domain.Session, 0, len(sessions))
	for _, item := range sessions {
		if item.ID == "" || item.Prompt == "" {
			continue
		}
		valid = append(valid, item)
	}
	return valid, nil
}

// Delete removes one persisted session and cancels any pending write for it.
func (s *Service) Delete(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	if pw, ok := s.pending[id]; ok {
		pw.timer.Stop()
		delete(s.pending, id)
	}
	delete(s.lastSaved, id)
	s.mu.Unlock()

	return s.store.Delete(ctx, id)
}

// Clear removes every persisted session.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	for id, pw := range s.pending {
		pw.timer.Stop()
		delete(s.pending, id)
	}
	s.lastSaved = make(map[domain.SessionID]domain.SaveTuple)
	s.mu.Unlock()

	return s.store.Clear(ctx)
}

// Partition splits sessions at the calendar-day boundary: items from today
// and items from earlier days, each keeping their stored order.
func Partition(sessions []domain.Session, now time.Time) (today, earlier []domain.Session) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, item := range sessions {
		if !item.Timestamp.Before(dayStart) {
			today = append(today, item)
		} else {
			earlier = append(earlier, item)
		}
	}
	return today, earlier
}
