// Package observable provides the broadcast state store and the FIFO mailbox the controllers
// are built on.
package observable

import "sync"

// Store holds the latest value of T and broadcasts every replacement to its subscribers.
// New subscribers immediately receive the current value. Values must be treated as
// immutable once set: subscribers share them.
type Store[T any] struct {
	mu          sync.Mutex
	value       T
	subscribers map[uint64]*Mailbox[T]
	nextID      uint64
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{
		value:       initial,
		subscribers: make(map[uint64]*Mailbox[T]),
	}
}

// Value returns the current snapshot
func (s *Store[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the current value and publishes it
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
	for _, sub := range s.subscribers {
		sub.Put(v)
	}
}

// Update replaces the value with fn(current) atomically and returns the new value
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = fn(s.value)
	for _, sub := range s.subscribers {
		sub.Put(s.value)
	}
	return s.value
}

// Subscribe returns a channel that replays the current value and then every later one, in
// order. Call cancel to stop; the channel is closed afterwards.
func (s *Store[T]) Subscribe() (<-chan T, func()) {
	sub := NewMailbox[T]()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = sub
	sub.Put(s.value)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		sub.Close()
	}

	return sub.Out(), cancel
}

// Close cancels every subscription
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sub := range s.subscribers {
		sub.Close()
		delete(s.subscribers, id)
	}
}
