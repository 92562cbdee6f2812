package domain

// FileRef describes a file the user attached to a message. Attachments are
// metadata only; file bytes never travel through the generation pipeline.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type,omitempty"`
}

// Message is one entry in a session's conversation. The sequence is
// append-only and total: messages are never reordered or deleted.
type Message struct {
	Sender      Sender    `json:"sender"`
	Text        string    `json:"text"`
	Attachments []FileRef `json:"files,omitempty"`
}

// Session is one conversation plus the deck it produced. ID is assigned
// once, at the first completed generation, and is immutable afterwards.
type Session struct {
	ID        SessionID `json:"id"`
	Prompt    string    `json:"prompt"`
	Deck      Deck      `json:"slides"`
	Messages  []Message `json:"messages"`
	Timestamp Timestamp `json:"timestamp"`
}

// Complete reports whether the session is eligible for persistence: an id,
// a prompt, at least one message and at least one slide.
func (s Session) Complete() bool {
	return s.ID != "" && s.Prompt != "" && len(s.Messages) > 0 && len(s.Deck) > 0
}

// SaveTuple is the idempotence guard for history writes: two snapshots with
// the same tuple are the same write.
type SaveTuple struct {
	ID           SessionID
	MessageCount int
	Prompt       string
	SlideCount   int
}

// Tuple returns the session's save tuple.
func (s Session) Tuple() SaveTuple {
	return SaveTuple{
		ID:           s.ID,
		MessageCount: len(s.Messages),
		Prompt:       s.Prompt,
		SlideCount:   len(s.Deck),
	}
}
