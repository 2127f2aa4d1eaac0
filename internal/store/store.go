// Package store provides the in-memory entity store shared by the lifecycle
// engines. Each record gets its own mutex so mutations on one entity never
// serialize against mutations on another, and externally-observed state is
// merged last-writer-wins by observation timestamp rather than arrival order.
package store

import (
	"errors"
	"sync"
	"time"
)

// Store errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
)

type entry[T any] struct {
	mu sync.Mutex

	value T
	// observedAt is the timestamp of the newest externally-observed state
	// merged into this record (webhook event time or gateway read time).
	// Local mutations do not advance it.
	observedAt time.Time
}

// Store is an in-memory keyed store with per-id mutation exclusivity.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	order   []string
}

// New creates an empty store.
func New[T any]() *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
	}
}

// Put inserts a new record. observedAt seeds the record's timestamp for
// later last-writer-wins merges. Returns ErrExists on duplicate ids.
func (s *Store[T]) Put(id string, value T, observedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		return ErrExists
	}
	s.entries[id] = &entry[T]{value: value, observedAt: observedAt}
	s.order = append(s.order, id)
	return nil
}

// Get returns a snapshot of the record.
func (s *Store[T]) Get(id string) (T, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		var zero T
		return zero, ErrNotFound
	}

	e.mu.Lock()
	v := e.value
	e.mu.Unlock()
	return v, nil
}

// List returns snapshots of all records in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	entries := make([]*entry[T], 0, len(ids))
	for _, id := range ids {
		entries = append(entries, s.entries[id])
	}
	s.mu.RUnlock()

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.value)
		e.mu.Unlock()
	}
	return out
}

// Len returns the number of records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Mutate runs fn on the record under its exclusive lock. fn sees and edits
// the live value; returning an error leaves the record unmodified. The
// record's observation timestamp is unchanged: Mutate is for local
// invariant-preserving writes, not external state sync. Returns a snapshot
// of the record after fn.
func (s *Store[T]) Mutate(id string, fn func(v *T) error) (T, error) {
	var zero T

	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return zero, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.value
	if err := fn(&e.value); err != nil {
		e.value = prev
		return zero, err
	}
	return e.value, nil
}

// Apply merges externally-observed state under the record's exclusive lock,
// last-writer-wins: if the record already holds state observed at or after
// observedAt from a different writer, fn is skipped and applied is false.
// Equal timestamps re-apply, which is safe because transitions are
// idempotent. On success the record's timestamp advances to observedAt.
func (s *Store[T]) Apply(id string, observedAt time.Time, fn func(v *T) error) (snapshot T, applied bool, err error) {
	var zero T

	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return zero, false, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if observedAt.Before(e.observedAt) {
		return e.value, false, nil
	}

	prev := e.value
	if err := fn(&e.value); err != nil {
		e.value = prev
		return zero, false, err
	}
	e.observedAt = observedAt
	return e.value, true, nil
}
