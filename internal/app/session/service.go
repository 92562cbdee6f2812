package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/piyuindia4/ai-slides/internal/app/generator"
	"github.com/piyuindia4/ai-slides/internal/domain"
	"github.com/piyuindia4/ai-slides/internal/observability"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrGenerationInFlight: a turn is already running; new submissions
	// are rejected, never queued.
	ErrGenerationInFlight = errors.New("generation already in flight")
	ErrEmptyInput         = errors.New("text is required")
	ErrNoRetry            = errors.New("no retryable failure to retry")
	ErrRetryCountdown     = errors.New("retry countdown has not elapsed")
	ErrSlideIndex         = errors.New("slide index out of range")
)

// Generator is the slice of the dispatcher the state machine drives.
type Generator interface {
	Generate(ctx context.Context, topic string, history []domain.Message) generator.Outcome
	Revise(ctx context.Context, instruction string, deck domain.Deck) generator.Outcome
}

// Saver receives stable snapshots of completed sessions. Saving is
// fire-and-forget from the state machine's perspective.
type Saver interface {
	Save(session domain.Session)
}

// thinkingTick is the cadence of the simulated progress display.
const thinkingTick = 1500 * time.Millisecond

// Service owns the live sessions and sequences user input, generation,
// progress display and error/retry state for each of them.
type Service struct {
	gen   Generator
	saver Saver
	now   func() time.Time
	tick  time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewService(gen Generator, saver Saver) *Service {
	return &Service{
		gen:      gen,
		saver:    saver,
		now:      time.Now,
		tick:     thinkingTick,
		sessions: make(map[string]*session),
	}
}

// NewSession creates an empty Idle session and returns its snapshot. The
// handle doubles as the persistent session id once the first generation
// completes.
func (s *Service) NewSession() Snapshot {
	sess := &session{
		handle: uuid.NewString(),
		state:  StateIdle,
	}

	s.mu.Lock()
	s.sessions[sess.handle] = sess
	s.mu.Unlock()

	return sess.snapshot(s.now())
}

func (s *Service) get(handle string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Get returns a snapshot of the session's visible state.
func (s *Service) Get(handle string) (Snapshot, error) {
	sess, err := s.get(handle)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sess.snapshot(s.now()), nil
}

// Submit runs one turn: appends the user message, dispatches a generate or
// revise call, and reconciles the outcome. Rejected with
// ErrGenerationInFlight while a previous turn is still awaiting.
func (s *Service) Submit(ctx context.Context, handle, text string, attachments []domain.FileRef) (Snapshot, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return Snapshot{}, ErrEmptyInput
	}

	sess, err := s.get(handle)
	if err != nil {
		return Snapshot{}, err
	}
	return s.runTurn(ctx, sess, text, attachments, true)
}

// Retry re-enters AwaitingGeneration with the same prompt. Only offered
// after a retryable failure, once the countdown has elapsed.
func (s *Service) Retry(ctx context.Context, handle string) (Snapshot, error) {
	sess, err := s.get(handle)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if sess.state != StateErroring || sess.failure == nil || !sess.failure.Retryable() {
		s.mu.Unlock()
		return Snapshot{}, ErrNoRetry
	}
	if sess.retryRemaining(s.now()) > 0 {
		s.mu.Unlock()
		return Snapshot{}, ErrRetryCountdown
	}
	prompt := sess.lastPrompt
	s.mu.Unlock()

	return s.runTurn(ctx, sess, prompt, nil, false)
}

func (s *Service) runTurn(ctx context.Context, sess *session, text string, attachments []domain.FileRef, appendUser bool) (Snapshot, error) {
	ctx = observability.WithSessionID(ctx, sess.handle)
	log := observability.LoggerFromContext(ctx)

	isRevise := false

	s.mu.Lock()
	if sess.state == StateAwaiting {
		s.mu.Unlock()
		return Snapshot{}, ErrGenerationInFlight
	}

	// A new turn supersedes any pending retry countdown.
	sess.retryDeadline = time.Time{}
	sess.failure = nil

	if appendUser {
		msgText := text
		if len(attachments) > 0 {
			names := make([]string, 0, len(attachments))
			for _, f := range attachments {
				names = append(names, f.Name)
			}
			if msgText != "" {
				msgText += "\n\nAttached files: " + strings.Join(names, ", ")
			} else {
				msgText = "Attached files: " + strings.Join(names, ", ")
			}
		}
		sess.messages = append(sess.messages, domain.Message{
			Sender:      domain.SenderUser,
			Text:        msgText,
			Attachments: attachments,
		})
	}

	isRevise = len(sess.deck) > 0
	currentDeck := sess.deck.Clone()
	sess.lastPrompt = text
	sess.state = StateAwaiting
	sess.thinking = newThinkingSteps(text)
	s.mu.Unlock()

	log.Info("turn started", "revise", isRevise, "text", text)

	done := make(chan struct{})
	go s.simulateProgress(sess, done)

	var out generator.Outcome
	if isRevise {
		out = s.gen.Revise(ctx, text, currentDeck)
	} else {
		out = s.gen.Generate(ctx, text, s.historyFor(sess))
	}
	close(done)

	now := s.now()

	s.mu.Lock()
	completeThinking(sess.thinking)

	// A failed remote call still appends an AI-authored response, so the
	// conversation never shows a gap.
	sess.messages = append(sess.messages, domain.Message{
		Sender: domain.SenderAI,
		Text:   out.Message,
	})
	sess.deck = out.Deck.Clone()
	sess.updatedAt = now

	if sess.prompt == "" {
		sess.prompt = text
	}
	if sess.id == "" {
		sess.id = domain.SessionID(sess.handle)
	}

	if out.Success() {
		sess.state = StateDisplaying
	} else {
		sess.state = StateErroring
		sess.failure = out.Failure
		if out.Failure.Retryable() && out.Failure.DelaySeconds > 0 {
			sess.retryDeadline = now.Add(time.Duration(out.Failure.DelaySeconds) * time.Second)
		}
	}

	snapshot := sess.snapshot(now)
	persisted := sess.toDomain(now)
	s.mu.Unlock()

	log.Info("turn finished",
		"state", snapshot.State,
		"slides", len(snapshot.Deck),
		"fallback", out.UsedFallback)

	if persisted.Complete() && s.saver != nil {
		s.saver.Save(persisted)
	}

	return snapshot, nil
}

// historyFor returns the messages that precede the current turn, excluding
// the user message just appended. The prompt builder trims to the three
// most recent on its own.
func (s *Service) historyFor(sess *session) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(sess.messages) <= 1 {
		return nil
	}
	return append([]domain.Message(nil), sess.messages[:len(sess.messages)-1]...)
}

// simulateProgress advances the thinking display on a fixed tick until the
// generation returns.
func (s *Service) simulateProgress(sess *session, done <-chan struct{}) {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			s.mu.Lock()
			more := sess.state == StateAwaiting && advanceThinking(sess.thinking)
			s.mu.Unlock()
			if !more {
				return
			}
		}
	}
}

// ReplaceSlide swaps the editable fields of one slide in place. Editing is
// whole-slide replace only; type, layout and image are untouched.
func (s *Service) ReplaceSlide(handle string, index int, title, subtitle, content string) (Snapshot, error) {
	sess, err := s.get(handle)
	if err != nil {
		return Snapshot{}, err
	}

	now := s.now()

	s.mu.Lock()
	if index < 0 || index >= len(sess.deck) {
		s.mu.Unlock()
		return Snapshot{}, ErrSlideIndex
	}
	sess.deck[index].Title = title
	sess.deck[index].Subtitle = subtitle
	sess.deck[index].Content = content
	sess.updatedAt = now

	snapshot := sess.snapshot(now)
	persisted := sess.toDomain(now)
	s.mu.Unlock()

	if persisted.Complete() && s.saver != nil {
		s.saver.Save(persisted)
	}
	return snapshot, nil
}

// Deck returns a copy of the current deck for export. Copy-on-read: the
// exporter never observes a deck mutated mid-export.
func (s *Service) Deck(handle string) (domain.Deck, string, error) {
	sess, err := s.get(handle)
	if err != nil {
		return nil, "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sess.deck.Clone(), sess.prompt, nil
}

// Restore loads a persisted session back into memory as a live session in
// Displaying state, keyed by its original id.
func (s *Service) Restore(saved domain.Session) Snapshot {
	sess := &session{
		handle:   string(saved.ID),
		id:       saved.ID,
		prompt:   saved.Prompt,
		deck:     saved.Deck.Clone(),
		messages: append([]domain.Message(nil), saved.Messages...),
		state:    StateDisplaying,
	}
	if len(sess.deck) == 0 {
		sess.state = StateIdle
	}
	if len(sess.messages) > 0 {
		sess.lastPrompt = saved.Prompt
	}

	s.mu.Lock()
	s.sessions[sess.handle] = sess
	s.mu.Unlock()

	return sess.snapshot(s.now())
}
