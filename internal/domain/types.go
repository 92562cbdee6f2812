package domain

import "time"

type SessionID string

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// SlideType distinguishes the opening slide from the rest of the deck.
type SlideType string

const (
	SlideTypeTitle   SlideType = "title"
	SlideTypeContent SlideType = "content"
)

type Timestamp = time.Time
