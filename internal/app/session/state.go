package session

import (
	"fmt"
	"math"
	"time"

	"github.com/piyuindia4/ai-slides/internal/app/generator"
	"github.com/piyuindia4/ai-slides/internal/domain"
)

// State is the per-turn position of a session. A turn always terminates in
// Displaying or Erroring; neither blocks future turns.
type State string

const (
	StateIdle       State = "idle"
	StateAwaiting   State = "awaiting_generation"
	StateDisplaying State = "displaying"
	StateErroring   State = "erroring"
)

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// ThinkingStep is one row of the simulated progress display shown while a
// generation is in flight.
type ThinkingStep struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

func newThinkingSteps(prompt string) []ThinkingStep {
	return []ThinkingStep{
		{
			Title:       "Understanding your request",
			Description: fmt.Sprintf("Analyzing your request about %q", prompt),
			Status:      StepCompleted,
		},
		{
			Title:       "Connecting to AI",
			Description: "Establishing connection to the generation service",
			Status:      StepPending,
		},
		{
			Title:       "Generating content",
			Description: "Creating slide content based on your topic",
			Status:      StepPending,
		},
		{
			Title:       "Formatting slides",
			Description: "Structuring the presentation with proper formatting",
			Status:      StepPending,
		},
	}
}

// advanceThinking moves the next pending step to in-progress and completes
// the one before it. Returns false once every step is done.
func advanceThinking(steps []ThinkingStep) bool {
	for i := range steps {
		if steps[i].Status == StepInProgress {
			steps[i].Status = StepCompleted
		}
	}
	for i := range steps {
		if steps[i].Status == StepPending {
			steps[i].Status = StepInProgress
			return true
		}
	}
	return false
}

func completeThinking(steps []ThinkingStep) {
	for i := range steps {
		steps[i].Status = StepCompleted
	}
}

// ErrorInfo is the user-visible error state of a turn that ended in
// Erroring. RetryInSeconds is the countdown gating the manual retry.
type ErrorInfo struct {
	Message        string `json:"message"`
	Class          string `json:"class"`
	Retryable      bool   `json:"retryable"`
	RetryInSeconds int    `json:"retry_in_seconds"`
}

// Snapshot is a copy of a session's visible state, safe to render or
// serialize while the live session keeps mutating.
type Snapshot struct {
	Handle   string           `json:"handle"`
	ID       domain.SessionID `json:"id,omitempty"`
	Prompt   string           `json:"prompt"`
	Deck     domain.Deck      `json:"slides"`
	Messages []domain.Message `json:"messages"`
	State    State            `json:"state"`
	Thinking []ThinkingStep   `json:"thinking,omitempty"`
	Error    *ErrorInfo       `json:"error,omitempty"`
}

// session is the live state machine record. All fields are guarded by the
// owning service; only Snapshot copies leave the package.
type session struct {
	handle   string
	id       domain.SessionID
	prompt   string
	deck     domain.Deck
	messages []domain.Message

	state    State
	thinking []ThinkingStep
	failure  *generator.Failure

	// lastPrompt is what a retry re-submits.
	lastPrompt    string
	retryDeadline time.Time

	updatedAt time.Time
}

func (s *session) retryRemaining(now time.Time) int {
	if s.retryDeadline.IsZero() {
		return 0
	}
	left := s.retryDeadline.Sub(now).Seconds()
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left))
}

func (s *session) snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Handle:   s.handle,
		ID:       s.id,
		Prompt:   s.prompt,
		Deck:     s.deck.Clone(),
		Messages: append([]domain.Message(nil), s.messages...),
		State:    s.state,
	}
	if s.state == StateAwaiting {
		snap.Thinking = append([]ThinkingStep(nil), s.thinking...)
	}
	if s.failure != nil {
		snap.Error = &ErrorInfo{
			Message:        s.failure.Reason,
			Class:          string(s.failure.Class),
			Retryable:      s.failure.Retryable(),
			RetryInSeconds: s.retryRemaining(now),
		}
	}
	return snap
}

// toDomain builds the persistable snapshot of the session.
func (s *session) toDomain(now time.Time) domain.Session {
	return domain.Session{
		ID:        s.id,
		Prompt:    s.prompt,
		Deck:      s.deck.Clone(),
		Messages:  append([]domain.Message(nil), s.messages...),
		Timestamp: now,
	}
}
