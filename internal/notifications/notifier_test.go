package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostAndExpire(t *testing.T) {
	n := NewNotifier(WithTTL(30 * time.Millisecond))

	n.Post("saved", LevelSuccess)
	current, ok := n.Current()
	require.True(t, ok)
	require.Equal(t, "saved", current.Text)
	require.Equal(t, LevelSuccess, current.Level)

	require.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestPostReplacesPending(t *testing.T) {
	n := NewNotifier(WithTTL(40 * time.Millisecond))

	n.Post("first", LevelInfo)
	time.Sleep(25 * time.Millisecond)
	n.Post("second", LevelError)

	// The first notification's timer would have fired by now; it must
	// not clear the replacement.
	time.Sleep(25 * time.Millisecond)
	current, ok := n.Current()
	require.True(t, ok)
	require.Equal(t, "second", current.Text)

	require.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestClear(t *testing.T) {
	n := NewNotifier()

	n.Post("pending", LevelWarning)
	n.Clear()

	_, ok := n.Current()
	require.False(t, ok)

	// Clearing an empty slot is fine.
	n.Clear()
}
