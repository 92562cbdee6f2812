package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

// Store is a Firestore-backed SnapshotStore: one document per session
// under a single collection.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) historyCol() *firestore.CollectionRef {
	return s.client.Collection("history")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.historyCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type slideDoc struct {
	Title    string `firestore:"title"`
	Subtitle string `firestore:"subtitle"`
	Content  string `firestore:"content"`
	Type     string `firestore:"type"`
	Image    string `firestore:"image"`
	Layout   string `firestore:"layout"`
}

type messageDoc struct {
	Sender string `firestore:"sender"`
	Text   string `firestore:"text"`
}

type sessionDoc struct {
	Prompt    string       `firestore:"prompt"`
	Slides    []slideDoc   `firestore:"slides"`
	Messages  []messageDoc `firestore:"messages"`
	Timestamp time.Time    `firestore:"timestamp"`
}

func toSessionDoc(session domain.Session) sessionDoc {
	doc := sessionDoc{
		Prompt:    session.Prompt,
		Timestamp: session.Timestamp,
	}
	for _, sl := range session.Deck {
		doc.Slides = append(doc.Slides, slideDoc{
			Title:    sl.Title,
			Subtitle: sl.Subtitle,
			Content:  sl.Content,
			Type:     string(sl.Type),
			Image:    sl.Image,
			Layout:   sl.Layout,
		})
	}
	for _, m := range session.Messages {
		doc.Messages = append(doc.Messages, messageDoc{
			Sender: string(m.Sender),
			Text:   m.Text,
		})
	}
	return doc
}

func fromSessionDoc(id domain.SessionID, doc sessionDoc) domain.Session {
	session := domain.Session{
		ID:        id,
		Prompt:    doc.Prompt,
		Timestamp: doc.Timestamp,
	}
	for _, sl := range doc.Slides {
		session.Deck = append(session.Deck, domain.Slide{
			Title:    sl.Title,
			Subtitle: sl.Subtitle,
			Content:  sl.Content,
			Type:     domain.SlideType(sl.Type),
			Image:    sl.Image,
			Layout:   sl.Layout,
		})
	}
	for _, m := range doc.Messages {
		session.Messages = append(session.Messages, domain.Message{
			Sender: domain.Sender(m.Sender),
			Text:   m.Text,
		})
	}
	return session
}

// ─────────────────────────────────────────
// SnapshotStore implementation
// ─────────────────────────────────────────

// Put upserts a session snapshot. An update keeps the originally recorded
// prompt, which serves as the session's immutable title.
func (s *Store) Put(ctx context.Context, session domain.Session) error {
	doc := toSessionDoc(session)

	snap, err := s.sessionDoc(session.ID).Get(ctx)
	switch {
	case err == nil:
		var existing sessionDoc
		if derr := snap.DataTo(&existing); derr == nil && existing.Prompt != "" {
			doc.Prompt = existing.Prompt
		}
	case status.Code(err) == codes.NotFound:
		// first write for this id
	default:
		return fmt.Errorf("firestore Put lookup: %w", err)
	}

	if _, err := s.sessionDoc(session.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore Put: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	q := s.historyCol().OrderBy("timestamp", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore List: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}

		out = append(out, fromSessionDoc(domain.SessionID(snap.Ref.ID), doc))
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id domain.SessionID) error {
	if _, err := s.sessionDoc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore Delete: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	iter := s.historyCol().Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				return nil
			}
			return fmt.Errorf("firestore Clear: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("firestore Clear delete: %w", err)
		}
	}
}
