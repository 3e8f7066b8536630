package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultBufferSize = 64

// Broker is a small publish-subscribe hub that lets UI layers observe
// repository and chat state changes without polling. Subscribers with a
// full channel have events dropped rather than blocking the publisher.
type Broker struct {
	mu         sync.RWMutex
	subs       map[chan Event]string
	done       chan struct{}
	bufferSize int
}

// NewBroker creates a broker with the default channel buffer size.
func NewBroker() *Broker {
	return &Broker{
		subs:       make(map[chan Event]string),
		done:       make(chan struct{}),
		bufferSize: defaultBufferSize,
	}
}

// Publish delivers an event to all current subscribers.
func (b *Broker) Publish(eventType EventType, sessionID string, payload interface{}) {
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	// Shutdown closes subscriber channels under the write lock, so the
	// done check must happen under the read lock to avoid sending on a
	// closed channel.
	select {
	case <-b.done:
		return
	default:
	}

	for ch, id := range b.subs {
		select {
		case ch <- event:
		default:
			slog.Warn("Event channel full, dropping event", "subscriber", id, "event", event.ID)
		}
	}
}

// Subscribe registers a new subscriber. The channel is closed when ctx
// is cancelled or the broker shuts down.
func (b *Broker) Subscribe(ctx context.Context) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subs[ch] = uuid.New().String()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.unsubscribe(ch)
	}()

	return ch
}

func (b *Broker) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Shutdown closes the broker and all subscriber channels.
func (b *Broker) Shutdown() {
	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
