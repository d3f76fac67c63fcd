// Package session ties one player's narrative state to a dispatch loop.
// All mutation flows through Dispatch; observers subscribe for state
// changes instead of the session knowing anything about rendering.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

// Listener is notified after an action has been applied. The state passed
// in is the post-dispatch snapshot.
type Listener func(state narrative.NarrativeState, action narrative.Action)

// Session is one playthrough of a story.
type Session struct {
	ID        uuid.UUID                `json:"id"`
	StoryID   string                   `json:"story_id"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
	State     narrative.NarrativeState `json:"state"`

	mu        sync.RWMutex
	listeners map[int]Listener
	nextSub   int
}

// New creates a session seeded with the given state.
func New(storyID string, seed narrative.NarrativeState, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		StoryID:   storyID,
		CreatedAt: now,
		UpdatedAt: now,
		State:     seed,
	}
}

// Restore rebuilds a session loaded from persistence, normalizing any
// partially-shaped state an older snapshot may carry.
func Restore(s *Session, now time.Time) *Session {
	if s == nil {
		return nil
	}
	s.State = narrative.NormalizeState(s.State, now)
	return s
}

// Dispatch applies an action through the reducer and notifies listeners.
// Returns the post-dispatch state snapshot.
func (s *Session) Dispatch(action narrative.Action) narrative.NarrativeState {
	return s.DispatchAt(action, time.Now())
}

// DispatchAt is Dispatch with an explicit clock, for replay and tests.
func (s *Session) DispatchAt(action narrative.Action, now time.Time) narrative.NarrativeState {
	s.mu.Lock()
	s.State = narrative.Reduce(s.State, action, now)
	s.UpdatedAt = now
	state := s.State
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	// Listeners run outside the lock; a listener dispatching back in must
	// not deadlock.
	for _, l := range listeners {
		l(state, action)
	}
	return state
}

// Snapshot returns the current state.
func (s *Session) Snapshot() narrative.NarrativeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]Listener)
	}
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
