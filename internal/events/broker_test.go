package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	broker := NewBroker()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(SessionCreated, "s1", map[string]string{"name": "Session 1"})

	select {
	case event := <-ch:
		require.Equal(t, SessionCreated, event.Type)
		require.Equal(t, "s1", event.SessionID)
		require.NotEmpty(t, event.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBrokerUnsubscribeOnCancel(t *testing.T) {
	broker := NewBroker()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()

	// Channel closes once the cancellation is observed.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				require.Equal(t, 0, broker.SubscriberCount())
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel was not closed")
		}
	}
}

func TestBrokerShutdownClosesSubscribers(t *testing.T) {
	broker := NewBroker()
	ch := broker.Subscribe(context.Background())

	broker.Shutdown()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed")
	}

	// Publishing after shutdown is a no-op.
	broker.Publish(SessionCreated, "", nil)
}
