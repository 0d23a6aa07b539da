package scan

import (
	"sync"

	"github.com/jpbenga/tyrecheck/internal/models"
)

// Observer receives every state transition
type Observer func(State)

type subscription struct {
	id uint64
	fn Observer
}

// Store is the single source of truth for scan progress. It is an
// explicitly owned state container: construct one and hand it to
// whoever needs it, there is no package-level instance.
//
// Transitions atomically replace the snapshot and notify observers in
// subscription order. A transition is accepted from any state; the
// store does not police the lifecycle.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   []subscription
	nextID uint64
}

// NewStore creates a store in the Idle state
func NewStore() *Store {
	return &Store{state: Idle()}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an observer. The observer immediately receives the
// current state, then every subsequent transition until the returned
// unsubscribe function is called.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	current := s.state
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// ToIdle transitions to the initial state
func (s *Store) ToIdle() {
	s.set(Idle())
}

// ToCamera transitions to the capture/selection state
func (s *Store) ToCamera() {
	s.set(Camera())
}

// ToProcessing transitions to an in-flight attempt
func (s *Store) ToProcessing(imageRef string) {
	s.set(Processing(imageRef))
}

// ToResult transitions to a completed classification
func (s *Store) ToResult(imageRef string, c models.Classification) {
	s.set(Result(imageRef, c))
}

// ToError transitions to a failed attempt
func (s *Store) ToError(message, details, imageRef string) {
	s.set(Error(message, details, imageRef))
}

// set replaces the snapshot and notifies observers synchronously, in
// subscription order
func (s *Store) set(next State) {
	s.mu.Lock()
	s.state = next
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
}
