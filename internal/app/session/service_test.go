package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/piyuindia4/ai-slides/internal/app/generator"
	"github.com/piyuindia4/ai-slides/internal/app/session"
	"github.com/piyuindia4/ai-slides/internal/domain"
)

type fakeGen struct {
	mu            sync.Mutex
	generateCalls int
	reviseCalls   int
	outcome       generator.Outcome

	// block, when non-nil, holds Generate until closed. started signals
	// that the call is in flight.
	block   chan struct{}
	started chan struct{}
}

func (g *fakeGen) Generate(ctx context.Context, topic string, history []domain.Message) generator.Outcome {
	g.mu.Lock()
	g.generateCalls++
	g.mu.Unlock()
	if g.started != nil {
		close(g.started)
		g.started = nil
	}
	if g.block != nil {
		<-g.block
	}
	return g.outcome
}

func (g *fakeGen) Revise(ctx context.Context, instruction string, deck domain.Deck) generator.Outcome {
	g.mu.Lock()
	g.reviseCalls++
	g.mu.Unlock()
	return g.outcome
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []domain.Session
}

func (s *fakeSaver) Save(session domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, session)
}

func (s *fakeSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func successOutcome(slides int) generator.Outcome {
	deck := make(domain.Deck, 0, slides)
	for i := 0; i < slides; i++ {
		deck = append(deck, domain.Slide{Title: "Slide", Type: domain.SlideTypeContent})
	}
	deck[0].Type = domain.SlideTypeTitle
	return generator.Outcome{Deck: deck, Message: "Here you go."}
}

func TestSubmitGeneratesDeck(t *testing.T) {
	gen := &fakeGen{outcome: successOutcome(6)}
	saver := &fakeSaver{}
	svc := session.NewService(gen, saver)

	snap := svc.NewSession()
	if snap.State != session.StateIdle {
		t.Fatalf("expected idle, got %s", snap.State)
	}

	snap, err := svc.Submit(context.Background(), snap.Handle, "Solar Energy", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if snap.State != session.StateDisplaying {
		t.Fatalf("expected displaying, got %s", snap.State)
	}
	if len(snap.Deck) != 6 {
		t.Fatalf("expected 6 slides, got %d", len(snap.Deck))
	}
	if len(snap.Messages) != 2 {
		t.Fatalf("expected user and AI messages, got %d", len(snap.Messages))
	}
	if snap.Messages[0].Sender != domain.SenderUser || snap.Messages[1].Sender != domain.SenderAI {
		t.Fatal("unexpected message authorship")
	}
	if string(snap.ID) != snap.Handle {
		t.Fatalf("expected id to match handle, got id=%s handle=%s", snap.ID, snap.Handle)
	}
	if snap.Prompt != "Solar Energy" {
		t.Fatalf("expected originating prompt recorded, got %q", snap.Prompt)
	}
	if saver.count() != 1 {
		t.Fatalf("expected one save, got %d", saver.count())
	}
}

func TestSubmitRequiresInput(t *testing.T) {
	svc := session.NewService(&fakeGen{outcome: successOutcome(1)}, nil)
	snap := svc.NewSession()

	_, err := svc.Submit(context.Background(), snap.Handle, "   ", nil)
	if !errors.Is(err, session.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestSubmitUnknownHandle(t *testing.T) {
	svc := session.NewService(&fakeGen{outcome: successOutcome(1)}, nil)

	_, err := svc.Submit(context.Background(), "missing", "hello", nil)
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitRejectsConcurrentTurn(t *testing.T) {
	gen := &fakeGen{
		outcome: successOutcome(3),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := session.NewService(gen, nil)
	snap := svc.NewSession()

	started := gen.started
	release := gen.block

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Submit(context.Background(), snap.Handle, "first", nil)
	}()

	<-started

	got, err := svc.Get(snap.Handle)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != session.StateAwaiting {
		t.Fatalf("expected awaiting_generation, got %s", got.State)
	}
	if len(got.Thinking) == 0 {
		t.Fatal("expected thinking steps while awaiting")
	}

	_, err = svc.Submit(context.Background(), snap.Handle, "second", nil)
	if !errors.Is(err, session.ErrGenerationInFlight) {
		t.Fatalf("expected ErrGenerationInFlight, got %v", err)
	}

	close(release)
	wg.Wait()

	got, err = svc.Get(snap.Handle)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != session.StateDisplaying {
		t.Fatalf("expected displaying after release, got %s", got.State)
	}
}

func TestSecondTurnRevises(t *testing.T) {
	gen := &fakeGen{outcome: successOutcome(4)}
	svc := session.NewService(gen, nil)
	snap := svc.NewSession()

	if _, err := svc.Submit(context.Background(), snap.Handle, "topic", nil); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if _, err := svc.Submit(context.Background(), snap.Handle, "make it shorter", nil); err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if gen.generateCalls != 1 || gen.reviseCalls != 1 {
		t.Fatalf("expected one generate and one revise, got %d/%d", gen.generateCalls, gen.reviseCalls)
	}
}

func TestFailedTurnEntersErroring(t *testing.T) {
	failure := &generator.Failure{
		Class:        generator.FailureOverloaded,
		Reason:       "The AI service is currently overloaded",
		DelaySeconds: 5,
	}
	gen := &fakeGen{outcome: generator.Outcome{
		Deck:         generator.SynthesizeDeck("topic"),
		Message:      generator.FallbackMessage("topic"),
		Failure:      failure,
		UsedFallback: true,
	}}
	svc := session.NewService(gen, nil)
	snap := svc.NewSession()

	snap, err := svc.Submit(context.Background(), snap.Handle, "topic", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if snap.State != session.StateErroring {
		t.Fatalf("expected erroring, got %s", snap.State)
	}
	if snap.Error == nil || !snap.Error.Retryable {
		t.Fatal("expected a retryable error")
	}
	if snap.Error.RetryInSeconds <= 0 {
		t.Fatal("expected a retry countdown")
	}
	if len(snap.Deck) != 4 {
		t.Fatalf("expected the fallback deck, got %d slides", len(snap.Deck))
	}
	if len(snap.Messages) != 2 || snap.Messages[1].Sender != domain.SenderAI {
		t.Fatal("a failed turn must still append an AI message")
	}

	// The countdown has not elapsed yet.
	_, err = svc.Retry(context.Background(), snap.Handle)
	if !errors.Is(err, session.ErrRetryCountdown) {
		t.Fatalf("expected ErrRetryCountdown, got %v", err)
	}
}

func TestRetryRejectedAfterFatalFailure(t *testing.T) {
	failure := &generator.Failure{
		Class:  generator.FailureRateLimited,
		Reason: "API quota exceeded",
	}
	gen := &fakeGen{outcome: generator.Outcome{
		Deck:         generator.SynthesizeDeck("topic"),
		Message:      generator.FallbackMessage("topic"),
		Failure:      failure,
		UsedFallback: true,
	}}
	svc := session.NewService(gen, nil)
	snap := svc.NewSession()

	snap, err := svc.Submit(context.Background(), snap.Handle, "topic", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if snap.Error == nil || snap.Error.Retryable {
		t.Fatal("quota failures must not be retryable")
	}

	_, err = svc.Retry(context.Background(), snap.Handle)
	if !errors.Is(err, session.ErrNoRetry) {
		t.Fatalf("expected ErrNoRetry, got %v", err)
	}
}

func TestRetryRejectedWithoutFailure(t *testing.T) {
	svc := session.NewService(&fakeGen{outcome: successOutcome(2)}, nil)
	snap := svc.NewSession()

	_, err := svc.Retry(context.Background(), snap.Handle)
	if !errors.Is(err, session.ErrNoRetry) {
		t.Fatalf("expected ErrNoRetry, got %v", err)
	}
}

func TestReplaceSlide(t *testing.T) {
	saver := &fakeSaver{}
	svc := session.NewService(&fakeGen{outcome: successOutcome(3)}, saver)
	snap := svc.NewSession()

	snap, err := svc.Submit(context.Background(), snap.Handle, "topic", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	originalImage := snap.Deck[1].Image

	snap, err = svc.ReplaceSlide(snap.Handle, 1, "New Title", "New Subtitle", "New content.")
	if err != nil {
		t.Fatalf("ReplaceSlide failed: %v", err)
	}
	slide := snap.Deck[1]
	if slide.Title != "New Title" || slide.Subtitle != "New Subtitle" || slide.Content != "New content." {
		t.Fatalf("slide not replaced: %+v", slide)
	}
	if slide.Image != originalImage {
		t.Fatal("replace must not touch the image")
	}
	if saver.count() != 2 {
		t.Fatalf("expected the edit to be saved, got %d saves", saver.count())
	}

	if _, err := svc.ReplaceSlide(snap.Handle, 99, "t", "s", "c"); !errors.Is(err, session.ErrSlideIndex) {
		t.Fatalf("expected ErrSlideIndex, got %v", err)
	}
}

func TestAttachmentsRecordedOnUserMessage(t *testing.T) {
	svc := session.NewService(&fakeGen{outcome: successOutcome(2)}, nil)
	snap := svc.NewSession()

	files := []domain.FileRef{{Name: "notes.pdf", Size: 1024, Type: "application/pdf"}}
	snap, err := svc.Submit(context.Background(), snap.Handle, "topic", files)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	user := snap.Messages[0]
	if len(user.Attachments) != 1 || user.Attachments[0].Name != "notes.pdf" {
		t.Fatalf("expected attachment recorded, got %+v", user.Attachments)
	}
}

func TestRestore(t *testing.T) {
	svc := session.NewService(&fakeGen{outcome: successOutcome(2)}, nil)

	saved := domain.Session{
		ID:     domain.SessionID("restored-id"),
		Prompt: "Solar Energy",
		Deck:   generator.SynthesizeDeck("Solar Energy"),
		Messages: []domain.Message{
			{Sender: domain.SenderUser, Text: "Solar Energy"},
			{Sender: domain.SenderAI, Text: "Here you go."},
		},
		Timestamp: time.Now(),
	}

	snap := svc.Restore(saved)
	if snap.State != session.StateDisplaying {
		t.Fatalf("expected displaying, got %s", snap.State)
	}
	if snap.Handle != "restored-id" {
		t.Fatalf("expected handle to reuse the saved id, got %s", snap.Handle)
	}

	got, err := svc.Get("restored-id")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Deck) != 4 || len(got.Messages) != 2 {
		t.Fatalf("restored session incomplete: %d slides, %d messages", len(got.Deck), len(got.Messages))
	}
}
