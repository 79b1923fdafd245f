package usecase

import (
	"slices"
	"sync"
)

// subscribers is a registry of state observers. The zero value is ready to use.
type subscribers[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// publish calls every current observer in registration order. It must not
// be called with a manager lock held.
func (s *subscribers[T]) publish(v T) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
