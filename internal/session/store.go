package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

type entry[T any] struct {
	mu      sync.Mutex
	value   T
	touched time.Time
}

// Store keeps one value per session. Each session is guarded by its own lock
// so sessions never share mutable state and never block each other.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	newFn   func() T
	now     func() time.Time
}

// NewStore creates a store that initialises sessions with newFn.
func NewStore[T any](newFn func() T) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		newFn:   newFn,
		now:     time.Now,
	}
}

// Create starts a new session and returns its ID.
func (s *Store[T]) Create() string {
	id := uuid.NewString()
	e := &entry[T]{value: s.newFn(), touched: s.now()}
	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()
	return id
}

// With runs fn with exclusive access to the session value.
func (s *Store[T]) With(id string, fn func(v *T) error) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touched = s.now()
	return fn(&e.value)
}

// Delete ends a session. It reports whether the session existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// Len returns the number of live sessions.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep deletes sessions idle for longer than ttl and returns how many were
// removed.
func (s *Store[T]) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		e.mu.Lock()
		idle := e.touched.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Janitor sweeps idle sessions every interval until ctx is cancelled.
func (s *Store[T]) Janitor(ctx context.Context, interval, ttl time.Duration, onSweep func(n int)) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ttl); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
