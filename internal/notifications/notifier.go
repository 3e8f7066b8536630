package notifications

import (
	"sync"
	"time"

	"github.com/csmentor/csmentor/internal/events"
)

// Level represents the severity level of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultTTL is how long a notification stays live before expiring.
const DefaultTTL = 3 * time.Second

// Notification is a transient system message shown alongside the chat.
type Notification struct {
	Text      string    `json:"text"`
	Level     Level     `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithTTL overrides the notification lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(n *Notifier) {
		n.ttl = ttl
	}
}

// WithBroker publishes notification changes to the given event broker.
func WithBroker(broker *events.Broker) Option {
	return func(n *Notifier) {
		n.broker = broker
	}
}

// Notifier holds at most one live notification. Posting replaces the
// current one and restarts the expiry timer; the previous timer is
// always cancelled first so a stale expiry can never clear a newer
// notification.
type Notifier struct {
	mu      sync.Mutex
	current *Notification
	timer   *time.Timer
	ttl     time.Duration
	broker  *events.Broker
}

// NewNotifier creates a notifier with the default TTL.
func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{ttl: DefaultTTL}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Post replaces any pending notification and restarts the expiry timer.
func (n *Notifier) Post(text string, level Level) Notification {
	n.mu.Lock()

	if n.timer != nil {
		n.timer.Stop()
	}

	notif := &Notification{
		Text:      text,
		Level:     level,
		CreatedAt: time.Now(),
	}
	n.current = notif
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(notif) })
	n.mu.Unlock()

	if n.broker != nil {
		n.broker.Publish(events.NotificationPosted, "", *notif)
	}
	return *notif
}

// expire clears the slot when the timer fires, unless a newer
// notification has already taken it.
func (n *Notifier) expire(notif *Notification) {
	n.mu.Lock()
	if n.current != notif {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.timer = nil
	n.mu.Unlock()

	if n.broker != nil {
		n.broker.Publish(events.NotificationCleared, "", nil)
	}
}

// Clear cancels the pending notification early.
func (n *Notifier) Clear() {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	cleared := n.current != nil
	n.current = nil
	n.mu.Unlock()

	if cleared && n.broker != nil {
		n.broker.Publish(events.NotificationCleared, "", nil)
	}
}

// Current returns the live notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

// Info posts an info notification.
func (n *Notifier) Info(text string) {
	n.Post(text, LevelInfo)
}

// Success posts a success notification.
func (n *Notifier) Success(text string) {
	n.Post(text, LevelSuccess)
}

// Warning posts a warning notification.
func (n *Notifier) Warning(text string) {
	n.Post(text, LevelWarning)
}

// Error posts an error notification.
func (n *Notifier) Error(text string) {
	n.Post(text, LevelError)
}
