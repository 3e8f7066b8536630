package events

import "time"

// EventType identifies the kind of state change carried by an Event.
type EventType string

const (
	// Session lifecycle events.
	SessionCreated   EventType = "session.created"
	SessionRenamed   EventType = "session.renamed"
	SessionDeleted   EventType = "session.deleted"
	SessionRestored  EventType = "session.restored"
	SessionActivated EventType = "session.activated"
	HistoryCleared   EventType = "history.cleared"

	// Chat turn events.
	TurnStarted  EventType = "turn.started"
	TurnResolved EventType = "turn.resolved"
	TurnFailed   EventType = "turn.failed"

	// Notification events.
	NotificationPosted  EventType = "notification.posted"
	NotificationCleared EventType = "notification.cleared"
)

// Event is a single state-change record delivered to subscribers.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
