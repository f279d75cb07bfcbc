package state

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Store coordinates concurrent dispatches against a single State.
type Store struct {
	mu          sync.RWMutex
	state       State
	initialized bool
	subscribers []func(State, []Action)

	healthMu sync.RWMutex
	health   SyncHealth
}

// NewStore returns a Store seeded with Initial().
func NewStore() *Store {
	return &Store{state: Initial(), initialized: true}
}

// Dispatch reduces actions in order against a working copy and commits the
// result once. If any action fails nothing is committed and the error is
// returned. Subscribers run after the commit, outside the lock.
func (s *Store) Dispatch(actions ...Action) error {
	if len(actions) == 0 {
		return nil
	}

	next, subs, err := s.commit(actions)
	if err != nil {
		return err
	}

	for _, fn := range subs {
		fn(next, actions)
	}
	return nil
}

// commit reduces actions and stores the result under mu. It returns the new
// state and the subscribers to notify.
func (s *Store) commit(actions []Action) (State, []func(State, []Action), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureInit()
	next := s.state
	for _, a := range actions {
		var err error
		if next, err = Reduce(next, a); err != nil {
			return State{}, nil, fmt.Errorf("dispatch: %w", err)
		}
	}
	s.state = next
	return next, slices.Clone(s.subscribers), nil
}

// Snapshot returns a copy of the current state. List slices are cloned so
// callers may not reach the stored arrays.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Initial()
	}
	snap := s.state
	snap.Progress = slices.Clone(s.state.Progress)
	snap.Achievements = slices.Clone(s.state.Achievements)
	snap.Courses = slices.Clone(s.state.Courses)
	snap.PublicCourses = slices.Clone(s.state.PublicCourses)
	snap.Modules = slices.Clone(s.state.Modules)
	snap.Lessons = slices.Clone(s.state.Lessons)
	snap.Resources = slices.Clone(s.state.Resources)
	return snap
}

// Subscribe registers fn to run after every committed dispatch with the new
// state and the batch that produced it.
func (s *Store) Subscribe(fn func(State, []Action)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// ensureInit makes the zero Store usable. Caller holds mu.
func (s *Store) ensureInit() {
	if !s.initialized {
		s.state = Initial()
		s.initialized = true
	}
}

// SyncHealth describes the outcome of background refreshes. It lives beside
// State rather than in it because it depends on wall-clock time.
type SyncHealth struct {
	LastSynced          time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple refreshes.
func (h SyncHealth) IsOffline() bool {
	return h.ConsecutiveFailures >= 2
}

// RecordSync notes the result of a background refresh.
func (s *Store) RecordSync(err error) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	s.health.LastSynced = time.Now()
	if err != nil {
		s.health.LastError = err
		s.health.ConsecutiveFailures++
		return
	}
	s.health.LastError = nil
	s.health.ConsecutiveFailures = 0
}

// Health returns a copy of the refresh health.
func (s *Store) Health() SyncHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	h := s.health
	if s.health.LastError != nil {
		h.LastError = fmt.Errorf("%w", s.health.LastError)
	}
	return h
}
