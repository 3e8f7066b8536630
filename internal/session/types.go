package session

import (
	"time"

	"github.com/google/uuid"
)

// TypingID is the reserved message id for the pending-answer placeholder.
// Real message ids are random UUIDs and can never collide with it.
const TypingID = "typing"

// Role identifies who authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// MessageKind tags the variant of a message. Bot messages are exactly one
// of pending, answered, or errored; user messages carry their own tag.
type MessageKind string

const (
	KindUser     MessageKind = "user"
	KindPending  MessageKind = "pending"
	KindAnswered MessageKind = "answered"
	KindErrored  MessageKind = "errored"
)

// Message is a single entry in a session's conversation thread.
type Message struct {
	ID         string      `json:"id"`
	Role       Role        `json:"role"`
	Kind       MessageKind `json:"kind"`
	Text       string      `json:"text"`
	Confidence *float64    `json:"confidence,omitempty"`
	Source     string      `json:"source,omitempty"`
	Timestamp  *time.Time  `json:"timestamp,omitempty"`
}

// IsTyping reports whether the message is the transient placeholder.
func (m Message) IsTyping() bool {
	return m.Kind == KindPending
}

// IsError reports whether the message records a failed turn outcome.
func (m Message) IsError() bool {
	return m.Kind == KindErrored
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(text string) Message {
	now := time.Now()
	return Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Kind:      KindUser,
		Text:      text,
		Timestamp: &now,
	}
}

// NewPendingMessage creates the typing placeholder. It carries no
// timestamp; the timestamp appears on the answer that replaces it.
func NewPendingMessage() Message {
	return Message{
		ID:   TypingID,
		Role: RoleBot,
		Kind: KindPending,
	}
}

// NewAnswerMessage creates a successful bot answer.
func NewAnswerMessage(text string, confidence float64, source string) Message {
	now := time.Now()
	return Message{
		ID:         uuid.New().String(),
		Role:       RoleBot,
		Kind:       KindAnswered,
		Text:       text,
		Confidence: &confidence,
		Source:     source,
		Timestamp:  &now,
	}
}

// NewErrorMessage creates a bot message recording a failed turn.
func NewErrorMessage(text string) Message {
	now := time.Now()
	return Message{
		ID:        uuid.New().String(),
		Role:      RoleBot,
		Kind:      KindErrored,
		Text:      text,
		Timestamp: &now,
	}
}

// Session is a named conversation thread. A session lives in exactly one
// of the repository's two collections, Active or Deleted.
type Session struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Messages   []Message  `json:"messages"`
	Active     bool       `json:"active,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	RestoredAt *time.Time `json:"restoredAt,omitempty"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// Clone returns a deep copy so callers can read session state without
// racing repository mutations.
func (s *Session) Clone() *Session {
	copied := *s
	copied.Messages = make([]Message, len(s.Messages))
	copy(copied.Messages, s.Messages)
	return &copied
}
