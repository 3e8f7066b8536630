package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/csmentor/csmentor/internal/backend"
	"github.com/csmentor/csmentor/internal/session"
	"github.com/csmentor/csmentor/internal/storage"
)

type fakeAsker struct {
	ask func(ctx context.Context, question string) (*backend.Answer, error)
}

func (f *fakeAsker) Ask(ctx context.Context, question string) (*backend.Answer, error) {
	return f.ask(ctx, question)
}

type note struct {
	text  string
	level string
}

type fakeNotifier struct {
	notes []note
}

func (f *fakeNotifier) Warning(text string) { f.notes = append(f.notes, note{text, "warning"}) }
func (f *fakeNotifier) Error(text string)   { f.notes = append(f.notes, note{text, "error"}) }

func newTestController(t *testing.T, asker Asker) (*Controller, *session.Repository, *fakeNotifier) {
	t.Helper()
	repo := session.NewRepository(storage.NewMemoryStore())
	require.NoError(t, repo.Load())
	_, err := repo.Create("")
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	controller := NewController(repo, asker,
		WithNotifier(notifier),
		WithMinRevealDelay(0),
	)
	return controller, repo, notifier
}

func activeMessages(t *testing.T, repo *session.Repository) []session.Message {
	t.Helper()
	active, ok := repo.ActiveSession()
	require.True(t, ok)
	return active.Messages
}

func countTyping(messages []session.Message) int {
	count := 0
	for _, m := range messages {
		if m.ID == session.TypingID {
			count++
		}
	}
	return count
}

func TestSubmitSuccess(t *testing.T) {
	asker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		require.Equal(t, "What is a stack?", question)
		return &backend.Answer{Text: "A LIFO structure", Confidence: 0.95}, nil
	}}
	controller, repo, notifier := newTestController(t, asker)

	reply, err := controller.Submit(context.Background(), "What is a stack?")
	require.NoError(t, err)
	require.Equal(t, session.KindAnswered, reply.Kind)

	messages := activeMessages(t, repo)
	require.Len(t, messages, 2)
	require.Equal(t, session.RoleUser, messages[0].Role)
	require.Equal(t, "What is a stack?", messages[0].Text)
	require.Equal(t, session.RoleBot, messages[1].Role)
	require.Equal(t, "A LIFO structure", messages[1].Text)
	require.NotNil(t, messages[1].Confidence)
	require.InDelta(t, 0.95, *messages[1].Confidence, 1e-9)

	require.Zero(t, countTyping(messages), "placeholder must be gone after the turn")
	require.Empty(t, notifier.notes, "no notification when confidence is high")
	require.Equal(t, StateIdle, controller.State())
}

func TestSubmitLowConfidenceStatus(t *testing.T) {
	asker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		return nil, backend.ErrLowConfidence
	}}
	controller, repo, notifier := newTestController(t, asker)

	reply, err := controller.Submit(context.Background(), "hmm?")
	require.NoError(t, err, "a failed backend call is still a completed turn")
	require.Equal(t, session.KindErrored, reply.Kind)
	require.True(t, reply.IsError())

	messages := activeMessages(t, repo)
	require.Len(t, messages, 2)
	last := messages[len(messages)-1]
	require.True(t, last.IsError())
	require.Zero(t, countTyping(messages))

	require.Len(t, notifier.notes, 1)
	require.Equal(t, "error", notifier.notes[0].level)
	require.Equal(t, last.Text, notifier.notes[0].text)
	require.Equal(t, StateIdle, controller.State())
}

func TestSubmitTransportError(t *testing.T) {
	asker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		return nil, errors.New("connection refused")
	}}
	controller, repo, notifier := newTestController(t, asker)

	reply, err := controller.Submit(context.Background(), "anything")
	require.NoError(t, err)
	require.True(t, reply.IsError())
	require.Equal(t, connectionErrorText, reply.Text)

	messages := activeMessages(t, repo)
	require.Zero(t, countTyping(messages))
	require.Len(t, notifier.notes, 1)
	require.Equal(t, "error", notifier.notes[0].level)
}

func TestSubmitLowConfidenceWarning(t *testing.T) {
	asker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		return &backend.Answer{Text: "possibly", Confidence: 0.4}, nil
	}}
	controller, _, notifier := newTestController(t, asker)

	reply, err := controller.Submit(context.Background(), "obscure question")
	require.NoError(t, err)
	require.Equal(t, session.KindAnswered, reply.Kind)

	require.Len(t, notifier.notes, 1)
	require.Equal(t, "warning", notifier.notes[0].level)
}

func TestSubmitEmptyQuestion(t *testing.T) {
	asker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		t.Fatal("backend must not be called for empty input")
		return nil, nil
	}}
	controller, repo, _ := newTestController(t, asker)

	_, err := controller.Submit(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuestion)
	require.Empty(t, activeMessages(t, repo))
}

func TestSubmitNoActiveSession(t *testing.T) {
	repo := session.NewRepository(storage.NewMemoryStore())
	require.NoError(t, repo.Load())
	controller := NewController(repo, &fakeAsker{})

	_, err := controller.Submit(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSubmitWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	asker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		<-release
		return &backend.Answer{Text: "done", Confidence: 0.9}, nil
	}}
	controller, repo, _ := newTestController(t, asker)

	firstDone := make(chan error, 1)
	go func() {
		_, err := controller.Submit(context.Background(), "slow question")
		firstDone <- err
	}()

	require.Eventually(t, func() bool {
		return controller.State() == StateAwaitingAnswer
	}, time.Second, time.Millisecond)

	before := len(activeMessages(t, repo))
	_, err := controller.Submit(context.Background(), "impatient question")
	require.ErrorIs(t, err, ErrTurnInFlight)
	require.Len(t, activeMessages(t, repo), before, "rejected submit must not touch the message list")

	close(release)
	require.NoError(t, <-firstDone)
	require.Equal(t, StateIdle, controller.State())
}

func TestSubmitSequence(t *testing.T) {
	calls := 0
	asker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		calls++
		if calls%2 == 0 {
			return nil, backend.ErrLowConfidence
		}
		return &backend.Answer{Text: fmt.Sprintf("answer %d", calls), Confidence: 0.9}, nil
	}}
	controller, repo, _ := newTestController(t, asker)

	for i := 0; i < 4; i++ {
		_, err := controller.Submit(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	messages := activeMessages(t, repo)
	require.Len(t, messages, 8)
	require.Zero(t, countTyping(messages))
	require.Equal(t, session.KindAnswered, messages[1].Kind)
	require.Equal(t, session.KindErrored, messages[3].Kind)
}

func TestMinRevealDelayOnSuccessOnly(t *testing.T) {
	delay := 60 * time.Millisecond

	successAsker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		return &backend.Answer{Text: "quick", Confidence: 0.9}, nil
	}}
	repo := session.NewRepository(storage.NewMemoryStore())
	require.NoError(t, repo.Load())
	_, err := repo.Create("")
	require.NoError(t, err)
	controller := NewController(repo, successAsker, WithMinRevealDelay(delay))

	start := time.Now()
	_, err = controller.Submit(context.Background(), "fast?")
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), delay, "success path enforces the minimum reveal delay")

	failAsker := &fakeAsker{ask: func(ctx context.Context, question string) (*backend.Answer, error) {
		return nil, errors.New("down")
	}}
	controller = NewController(repo, failAsker, WithMinRevealDelay(time.Second))

	start = time.Now()
	_, err = controller.Submit(context.Background(), "failing?")
	require.NoError(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond, "error path skips the delay")
}
