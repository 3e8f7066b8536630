package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/csmentor/csmentor/internal/events"
	"github.com/csmentor/csmentor/internal/storage"
)

// Fixed store keys for persisted session state.
const (
	KeySessions        = "sessions"
	KeyDeletedSessions = "deletedSessions"
	KeyActiveSession   = "activeSessionId"
	KeyAutoSave        = "autoSave"
	KeySavedSessions   = "savedSessions"
)

var (
	// ErrSessionNotFound is returned for operations on unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAlreadyActive is returned when restoring a session whose id is
	// already present in the active collection.
	ErrAlreadyActive = errors.New("session is already active")
)

// Notifier receives the transient system messages the repository emits.
type Notifier interface {
	Info(text string)
	Success(text string)
	Error(text string)
}

// Option configures a Repository.
type Option func(*Repository)

// WithNotifier wires the repository's transient notifications.
func WithNotifier(n Notifier) Option {
	return func(r *Repository) {
		r.notifier = n
	}
}

// WithBroker publishes repository state changes to the given broker.
func WithBroker(b *events.Broker) Option {
	return func(r *Repository) {
		r.broker = b
	}
}

// Repository owns the Active and Deleted session collections and is the
// sole writer of session state to the store. Every mutating operation
// rewrites the full collections under their fixed keys while auto-save
// is on; while it is off the keys are actively removed so no stale data
// lingers.
type Repository struct {
	mu       sync.Mutex
	store    storage.Store
	notifier Notifier
	broker   *events.Broker

	active   []*Session // newest first
	deleted  []*Session
	activeID string
	autoSave bool
}

// NewRepository creates a repository backed by the given store.
// Auto-save starts enabled until Load finds a persisted preference.
func NewRepository(store storage.Store, opts ...Option) *Repository {
	r := &Repository{
		store:    store,
		active:   []*Session{},
		deleted:  []*Session{},
		autoSave: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads persisted state from the store. Missing keys fall back to
// empty collections and auto-save enabled.
func (r *Repository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []*Session
	if _, err := r.store.Get(KeySessions, &active); err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	var deleted []*Session
	if _, err := r.store.Get(KeyDeletedSessions, &deleted); err != nil {
		return fmt.Errorf("failed to load deleted sessions: %w", err)
	}
	var activeID string
	if _, err := r.store.Get(KeyActiveSession, &activeID); err != nil {
		return fmt.Errorf("failed to load active session id: %w", err)
	}
	autoSave := true
	if _, err := r.store.Get(KeyAutoSave, &autoSave); err != nil {
		return fmt.Errorf("failed to load auto-save flag: %w", err)
	}

	if active == nil {
		active = []*Session{}
	}
	if deleted == nil {
		deleted = []*Session{}
	}
	for _, s := range active {
		if s.Messages == nil {
			s.Messages = []Message{}
		}
		s.Active = s.ID == activeID && activeID != ""
	}
	for _, s := range deleted {
		if s.Messages == nil {
			s.Messages = []Message{}
		}
		s.Active = false
	}

	r.active = active
	r.deleted = deleted
	r.activeID = activeID
	r.autoSave = autoSave
	return nil
}

// Create inserts a new session at the head of the active collection and
// makes it the active session. An empty name defaults to "Session {n}".
func (r *Repository) Create(name string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = fmt.Sprintf("Session %d", len(r.active)+1)
	}

	s := &Session{
		ID:        uuid.New().String(),
		Name:      trimmed,
		Messages:  []Message{},
		CreatedAt: time.Now(),
	}
	r.active = append([]*Session{s}, r.active...)
	r.markActiveLocked(s.ID)

	err := r.persistLocked()
	r.publish(events.SessionCreated, s.ID, s.Clone())
	return s.Clone(), err
}

// Rename changes a session's name in place. A name that trims to empty
// is silently ignored.
func (r *Repository) Rename(id, newName string) error {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := findLocked(r.active, id)
	if s == nil {
		return fmt.Errorf("rename %s: %w", id, ErrSessionNotFound)
	}
	s.Name = trimmed

	err := r.persistLocked()
	r.publish(events.SessionRenamed, id, s.Clone())
	return err
}

// SoftDelete moves a session from Active to Deleted, stamping deletedAt.
func (r *Repository) SoftDelete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := indexLocked(r.active, id)
	if idx < 0 {
		r.notifyError("Session not found.")
		return fmt.Errorf("delete %s: %w", id, ErrSessionNotFound)
	}

	s := r.active[idx]
	r.active = append(r.active[:idx], r.active[idx+1:]...)

	now := time.Now()
	s.DeletedAt = &now
	s.Active = false
	if r.activeID == id {
		r.activeID = ""
	}
	r.deleted = append(r.deleted, s)

	err := r.persistLocked()
	r.notifyInfo(fmt.Sprintf("Session %q deleted", s.Name))
	r.publish(events.SessionDeleted, id, s.Clone())
	return err
}

// Restore moves a session from Deleted back to Active, stamping
// restoredAt and clearing deletedAt. The restored session is not made
// active; it waits for an explicit SetActive.
func (r *Repository) Restore(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if findLocked(r.active, id) != nil {
		r.notifyError("This session is already active!")
		return fmt.Errorf("restore %s: %w", id, ErrAlreadyActive)
	}

	idx := indexLocked(r.deleted, id)
	if idx < 0 {
		r.notifyError("Failed to restore session.")
		return fmt.Errorf("restore %s: %w", id, ErrSessionNotFound)
	}

	s := r.deleted[idx]
	r.deleted = append(r.deleted[:idx], r.deleted[idx+1:]...)

	now := time.Now()
	s.RestoredAt = &now
	s.DeletedAt = nil
	s.Active = false
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	r.active = append([]*Session{s}, r.active...)

	err := r.persistLocked()
	r.notifySuccess("Session restored successfully!")
	r.publish(events.SessionRestored, id, s.Clone())
	return err
}

// SetActive marks the session as the sole active one and persists its id.
func (r *Repository) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if findLocked(r.active, id) == nil {
		r.notifyError("Session not found.")
		return fmt.Errorf("activate %s: %w", id, ErrSessionNotFound)
	}
	r.markActiveLocked(id)

	err := r.persistLocked()
	r.publish(events.SessionActivated, id, nil)
	return err
}

// SetMessages replaces the message list of an active session and
// persists the result. The chat controller funnels all message
// mutations through here so the repository stays the sole store writer.
func (r *Repository) SetMessages(id string, messages []Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := findLocked(r.active, id)
	if s == nil {
		return fmt.Errorf("update messages for %s: %w", id, ErrSessionNotFound)
	}
	s.Messages = make([]Message, len(messages))
	copy(s.Messages, messages)

	return r.persistLocked()
}

// ClearAll empties both collections and removes their keys from the
// store regardless of the auto-save flag. Callers are expected to gate
// this behind their own confirmation step.
func (r *Repository) ClearAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = []*Session{}
	r.deleted = []*Session{}
	r.activeID = ""

	err := r.eraseLocked()
	r.publish(events.HistoryCleared, "", nil)
	return err
}

// SetAutoSave toggles the auto-save flag. Disabling erases all persisted
// session state while leaving memory untouched; enabling performs a
// one-time catch-up write of the current in-memory state. The flag
// itself is always persisted.
func (r *Repository) SetAutoSave(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.autoSave = enabled
	if err := r.store.Set(KeyAutoSave, enabled); err != nil {
		return fmt.Errorf("failed to persist auto-save flag: %w", err)
	}
	if enabled {
		return r.persistLocked()
	}
	return r.eraseLocked()
}

// AutoSave reports whether auto-save is enabled.
func (r *Repository) AutoSave() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.autoSave
}

// SaveSnapshot writes the active collection under its own key,
// independent of the auto-save flag. This backs the manual "save
// sessions" action.
func (r *Repository) SaveSnapshot() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Set(KeySavedSessions, r.active); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

// Sessions returns copies of the active collection, newest first.
func (r *Repository) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.active)
}

// Deleted returns copies of the deleted collection.
func (r *Repository) Deleted() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.deleted)
}

// Get looks a session up by id in either collection.
func (r *Repository) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := findLocked(r.active, id); s != nil {
		return s.Clone(), true
	}
	if s := findLocked(r.deleted, id); s != nil {
		return s.Clone(), true
	}
	return nil, false
}

// ActiveSession returns a copy of the currently active session.
func (r *Repository) ActiveSession() (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeID == "" {
		return nil, false
	}
	s := findLocked(r.active, r.activeID)
	if s == nil {
		return nil, false
	}
	return s.Clone(), true
}

// markActiveLocked makes id the sole active session.
func (r *Repository) markActiveLocked(id string) {
	r.activeID = id
	for _, s := range r.active {
		s.Active = s.ID == id
	}
}

// persistLocked writes the full collections and active id under their
// fixed keys, or erases them when auto-save is off. Writes are always
// whole-collection replacements, never partial merges.
func (r *Repository) persistLocked() error {
	if !r.autoSave {
		return r.eraseLocked()
	}

	if err := r.store.Set(KeySessions, r.active); err != nil {
		return fmt.Errorf("failed to persist sessions: %w", err)
	}
	if err := r.store.Set(KeyDeletedSessions, r.deleted); err != nil {
		return fmt.Errorf("failed to persist deleted sessions: %w", err)
	}
	if r.activeID == "" {
		if err := r.store.Remove(KeyActiveSession); err != nil {
			return fmt.Errorf("failed to clear active session id: %w", err)
		}
		return nil
	}
	if err := r.store.Set(KeyActiveSession, r.activeID); err != nil {
		return fmt.Errorf("failed to persist active session id: %w", err)
	}
	return nil
}

// eraseLocked removes the session keys from the store.
func (r *Repository) eraseLocked() error {
	for _, key := range []string{KeySessions, KeyDeletedSessions, KeyActiveSession} {
		if err := r.store.Remove(key); err != nil {
			return fmt.Errorf("failed to erase %s: %w", key, err)
		}
	}
	return nil
}

func (r *Repository) notifyInfo(text string) {
	if r.notifier != nil {
		r.notifier.Info(text)
	}
}

func (r *Repository) notifySuccess(text string) {
	if r.notifier != nil {
		r.notifier.Success(text)
	}
}

func (r *Repository) notifyError(text string) {
	if r.notifier != nil {
		r.notifier.Error(text)
	}
}

func (r *Repository) publish(eventType events.EventType, sessionID string, payload interface{}) {
	if r.broker != nil {
		r.broker.Publish(eventType, sessionID, payload)
	}
}

func findLocked(sessions []*Session, id string) *Session {
	for _, s := range sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func indexLocked(sessions []*Session, id string) int {
	for i, s := range sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(sessions []*Session) []*Session {
	result := make([]*Session, len(sessions))
	for i, s := range sessions {
		result[i] = s.Clone()
	}
	return result
}
