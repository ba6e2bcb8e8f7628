package wetlib

import "sync"

// Subject holds a current value and a registry of subscriber callbacks.
// Publish replaces the value and invokes every callback synchronously, in
// registration order. A late subscriber immediately receives the current
// value at registration time.
//
// Callbacks run with the subject unlocked, so a callback may call back into
// the subject (e.g., trigger a publish on another subject) without
// deadlocking. Callbacks must be fast; slow work belongs in a goroutine.
type Subject[T any] struct {
	mu    sync.Mutex
	value T
	subs  []subscriber[T]
	next  int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// NewSubject creates a Subject seeded with initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the current value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish stores v as the current value and notifies all subscribers.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	fns := make([]func(T), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe registers fn and immediately invokes it with the current value.
// The returned cancel func removes the subscription; calling it more than
// once is harmless.
func (s *Subject[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	cur := s.value
	s.mu.Unlock()

	fn(cur)

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

// SubscriberCount returns the number of registered subscribers.
func (s *Subject[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
