// Package chat runs the ask-question protocol for the active session:
// submit, show the typing placeholder, then replace it with the answer
// or an error fallback.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/csmentor/csmentor/internal/backend"
	"github.com/csmentor/csmentor/internal/events"
	"github.com/csmentor/csmentor/internal/session"
)

// TurnState is the controller's position in the current chat turn.
type TurnState string

const (
	StateIdle           TurnState = "idle"
	StateSubmitting     TurnState = "submitting"
	StateAwaitingAnswer TurnState = "awaiting_answer"
)

const (
	// DefaultMinRevealDelay is the minimum time the typing placeholder
	// stays visible before a successful answer replaces it. The error
	// path skips the delay.
	DefaultMinRevealDelay = 500 * time.Millisecond

	// DefaultWarnBelow is the confidence threshold under which a
	// successful answer still gets a verification warning.
	DefaultWarnBelow = 0.7
)

const (
	connectionErrorText = "Sorry, something went wrong while contacting the assistant. Please try again."
	lowConfidenceText   = "I'm not confident about this answer. Please try rephrasing your question."
	verifyWarningText   = "The assistant is not fully confident in this answer. Please verify it before relying on it."
)

var (
	// ErrEmptyQuestion is returned when the question trims to nothing.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrTurnInFlight is returned when a turn is already running;
	// concurrent submits are rejected, never queued.
	ErrTurnInFlight = errors.New("a turn is already in flight")
	// ErrNoActiveSession is returned when no session is active.
	ErrNoActiveSession = errors.New("no active session")
)

// SessionStore is the slice of the session repository the controller
// needs: reading the active session and writing its message list back.
type SessionStore interface {
	ActiveSession() (*session.Session, bool)
	SetMessages(id string, messages []session.Message) error
}

// Asker submits one question to the Q&A collaborator.
type Asker interface {
	Ask(ctx context.Context, question string) (*backend.Answer, error)
}

// Notifier receives the at-most-one notification a turn can emit.
type Notifier interface {
	Warning(text string)
	Error(text string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier wires turn notifications.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithBroker publishes turn events to the given broker.
func WithBroker(b *events.Broker) Option {
	return func(c *Controller) {
		c.broker = b
	}
}

// WithMinRevealDelay overrides the minimum placeholder visibility.
func WithMinRevealDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.minReveal = d
	}
}

// WithWarnBelow overrides the confidence warning threshold.
func WithWarnBelow(threshold float64) Option {
	return func(c *Controller) {
		c.warnBelow = threshold
	}
}

// Controller owns message mutations for the active session and runs at
// most one turn at a time. Once a turn is submitted it cannot be
// aborted; teardown during AwaitingAnswer simply abandons the response.
type Controller struct {
	mu       sync.Mutex
	state    TurnState
	sessions SessionStore
	client   Asker
	notifier Notifier
	broker   *events.Broker

	minReveal time.Duration
	warnBelow float64
}

// NewController creates a controller over the given session store and
// backend client.
func NewController(sessions SessionStore, client Asker, opts ...Option) *Controller {
	c := &Controller{
		state:     StateIdle,
		sessions:  sessions,
		client:    client,
		minReveal: DefaultMinRevealDelay,
		warnBelow: DefaultWarnBelow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current turn state.
func (c *Controller) State() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one chat turn: append the user message and the typing
// placeholder, ask the backend, then replace the placeholder with the
// answer or an error fallback. The returned message is the turn's final
// bot message; a failed backend call is a completed turn, reported
// through the message and a notification rather than an error return.
func (c *Controller) Submit(ctx context.Context, questionText string) (*session.Message, error) {
	text := strings.TrimSpace(questionText)
	if text == "" {
		return nil, ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	active, ok := c.sessions.ActiveSession()
	if !ok {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	c.state = StateSubmitting

	messages := append(active.Messages, session.NewUserMessage(text))
	messages = dropTyping(messages)
	messages = append(messages, session.NewPendingMessage())
	c.state = StateAwaitingAnswer
	c.mu.Unlock()

	if err := c.sessions.SetMessages(active.ID, messages); err != nil {
		c.reset()
		return nil, err
	}
	c.publish(events.TurnStarted, active.ID, text)

	awaitStart := time.Now()
	answer, askErr := c.client.Ask(ctx, text)

	var reply session.Message
	if askErr != nil {
		reply = session.NewErrorMessage(failureText(askErr))
	} else {
		if wait := c.minReveal - time.Since(awaitStart); wait > 0 {
			time.Sleep(wait)
		}
		reply = session.NewAnswerMessage(answer.Text, answer.Confidence, answer.Source)
	}

	messages = dropTyping(messages)
	messages = append(messages, reply)
	if err := c.sessions.SetMessages(active.ID, messages); err != nil {
		c.reset()
		return nil, err
	}
	c.reset()

	if askErr != nil {
		c.notifyError(reply.Text)
		c.publish(events.TurnFailed, active.ID, reply)
		return &reply, nil
	}
	if answer.Confidence < c.warnBelow {
		c.notifyWarning(verifyWarningText)
	}
	c.publish(events.TurnResolved, active.ID, reply)
	return &reply, nil
}

// reset returns the turn state machine to idle.
func (c *Controller) reset() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

// failureText maps a backend error to the human-readable explanation
// shown in the thread and the notification. A low-confidence refusal
// keeps the service's own message when the envelope carried one.
func failureText(err error) string {
	var lowConf *backend.LowConfidenceError
	if errors.As(err, &lowConf) && lowConf.Message != "" {
		return lowConf.Message
	}
	if errors.Is(err, backend.ErrLowConfidence) {
		return lowConfidenceText
	}
	return connectionErrorText
}

// dropTyping removes the placeholder so the list never holds more than
// one.
func dropTyping(messages []session.Message) []session.Message {
	result := make([]session.Message, 0, len(messages))
	for _, m := range messages {
		if m.ID == session.TypingID {
			continue
		}
		result = append(result, m)
	}
	return result
}

func (c *Controller) notifyWarning(text string) {
	if c.notifier != nil {
		c.notifier.Warning(text)
	}
}

func (c *Controller) notifyError(text string) {
	if c.notifier != nil {
		c.notifier.Error(text)
	}
}

func (c *Controller) publish(eventType events.EventType, sessionID string, payload interface{}) {
	if c.broker != nil {
		c.broker.Publish(eventType, sessionID, payload)
	}
}
