package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piyuindia4/ai-slides/internal/adapters/history/file"
	"github.com/piyuindia4/ai-slides/internal/domain"
)

func testSession(id, prompt string) domain.Session {
	return domain.Session{
		ID:     domain.SessionID(id),
		Prompt: prompt,
		Deck:   domain.Deck{{Title: "t", Type: domain.SlideTypeTitle}},
		Messages: []domain.Message{
			{Sender: domain.SenderUser, Text: prompt},
			{Sender: domain.SenderAI, Text: "done"},
		},
		Timestamp: time.Now(),
	}
}

func newTestStore(t *testing.T) *file.Store {
	t.Helper()
	store, err := file.NewStore(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestPutAndListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, testSession("a", "first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, testSession("b", "second")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "b" || sessions[1].ID != "a" {
		t.Fatalf("expected most recent first, got %s,%s", sessions[0].ID, sessions[1].ID)
	}
}

func TestPutUpdatePreservesPrompt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, testSession("a", "original prompt")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	updated := testSession("a", "follow-up instruction")
	updated.Messages = append(updated.Messages, domain.Message{Sender: domain.SenderUser, Text: "more"})
	if err := store.Put(ctx, updated); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected the update in place, got %d sessions", len(sessions))
	}
	if sessions[0].Prompt != "original prompt" {
		t.Fatalf("expected the original prompt preserved, got %q", sessions[0].Prompt)
	}
	if len(sessions[0].Messages) != 3 {
		t.Fatalf("expected updated messages, got %d", len(sessions[0].Messages))
	}
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_ = store.Put(ctx, testSession("a", "first"))
	_ = store.Put(ctx, testSession("b", "second"))

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	sessions, _ := store.List(ctx)
	if len(sessions) != 1 || sessions[0].ID != "b" {
		t.Fatalf("unexpected sessions after delete: %v", sessions)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(sessions))
	}
}

func TestUnreadableFileTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	store, err := file.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected empty history, got %d", len(sessions))
	}

	// And writes recover from it.
	if err := store.Put(ctx, testSession("a", "first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	sessions, _ = store.List(ctx)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
}
