package state

import (
	"sync"
	"time"

	"github.com/five82/kiwi/internal/todo"
)

// Snapshot represents the latest state available to the UI.
type Snapshot struct {
	todo.State
	LastUpdated         time.Time
	ConsecutiveFailures int // fetch errors since the last successful load
}

// IsOffline returns true when the remote store has failed repeatedly.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store owns the reducer state and serializes every dispatch through one lock.
type Store struct {
	mu       sync.RWMutex
	state    todo.State
	updated  time.Time
	failures int
	changed  chan struct{}
	once     sync.Once
}

// NewStore returns a Store holding the initial reducer state.
func NewStore() *Store {
	s := &Store{state: todo.InitialState()}
	s.init()
	return s
}

func (s *Store) init() {
	s.once.Do(func() {
		s.changed = make(chan struct{}, 1)
	})
}

// Dispatch applies action and returns the resulting state.
func (s *Store) Dispatch(action todo.Action) todo.State {
	s.mu.Lock()
	next := s.applyLocked(action)
	s.mu.Unlock()

	s.notify()
	return next.Clone()
}

// Capture reads the todo with id and dispatches the action derived from it
// under the same lock, so the returned todo and index are the pre-mutation
// value and position.
func (s *Store) Capture(id string, derive func(todo.Todo) todo.Action) (todo.Todo, int, bool) {
	s.mu.Lock()
	index := -1
	original, ok := s.state.Find(id)
	if ok {
		for i, t := range s.state.Todos {
			if t.ID == id {
				index = i
				break
			}
		}
		s.applyLocked(derive(original))
	}
	s.mu.Unlock()

	if ok {
		s.notify()
	}
	return original, index, ok
}

// CaptureList copies the whole list and dispatches the action derived from it
// under the same lock.
func (s *Store) CaptureList(derive func([]todo.Todo) todo.Action) []todo.Todo {
	s.mu.Lock()
	original := s.state.Clone().Todos
	s.applyLocked(derive(original))
	s.mu.Unlock()

	s.notify()
	return original
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		State:               s.state.Clone(),
		LastUpdated:         s.updated,
		ConsecutiveFailures: s.failures,
	}
}

// Changes returns a channel that receives a value after state changes.
// Notifications coalesce: a slow reader sees one pending signal, not one per
// dispatch.
func (s *Store) Changes() <-chan struct{} {
	s.init()
	return s.changed
}

func (s *Store) applyLocked(action todo.Action) todo.State {
	s.state = todo.Apply(s.state, action)
	s.updated = time.Now()

	switch a := action.(type) {
	case todo.LoadTodos:
		s.failures = 0
	case todo.SetLoadError:
		if !a.Write {
			s.failures++
		}
	}
	return s.state
}

func (s *Store) notify() {
	s.init()
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
