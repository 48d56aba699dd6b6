package session

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	expires time.Time
}

// Memory is an in-process Store. Entries expire ttl after their last Put;
// a zero ttl keeps them forever.
type Memory[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory[T any](ttl time.Duration) *Memory[T] {
	return &Memory[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || m.expired(e) {
		delete(m.entries, id)

		var zero T
		return zero, ErrNotFound
	}

	return e.value, nil
}

func (m *Memory[T]) Put(_ context.Context, id string, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry[T]{value: v}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[id] = e
	m.sweep()

	return nil
}

func (m *Memory[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)

	return nil
}

// Len returns the number of live entries.
func (m *Memory[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()

	return len(m.entries)
}

func (m *Memory[T]) expired(e entry[T]) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// sweep drops expired entries. Callers hold mu.
func (m *Memory[T]) sweep() {
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
		}
	}
}
