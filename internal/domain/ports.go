package domain

import "context"

// ModelClient defines how the application talks to the hosted text model.
// One call is one generation attempt; retries live above this interface.
type ModelClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// SnapshotStore defines durable storage for session snapshots. The history
// service owns debouncing and idempotence; stores only read and write the
// full snapshot array.
type SnapshotStore interface {
	Put(ctx context.Context, session Session) error
	List(ctx context.Context) ([]Session, error)
	Delete(ctx context.Context, id SessionID) error
	Clear(ctx context.Context) error
}
