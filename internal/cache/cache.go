// Package cache holds last-known-good snapshots of remote reads.
package cache

import (
	"sync"
	"time"
)

// Snapshot retains the most recent successfully fetched value so callers
// can keep serving stale data while the source is unreachable.
type Snapshot[T any] struct {
	mu    sync.Mutex
	value T
	at    time.Time
	ok    bool
}

// Set records a fresh value.
func (s *Snapshot[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.at = time.Now()
	s.ok = true
}

// Get returns the retained value and whether one has ever been set.
func (s *Snapshot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.ok
}

// At returns when the retained value was recorded; zero if never set.
func (s *Snapshot[T]) At() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.at
}

// Clear drops the retained value.
func (s *Snapshot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.at = time.Time{}
	s.ok = false
}
