package sessions

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound is returned for unknown or evicted session IDs.
var ErrNotFound = errors.New("session not found")

// DefaultCapacity bounds how many live sessions a single node keeps.
// Least recently used sessions fall off first.
const DefaultCapacity = 1024

// Store is a bounded in-memory session store. Sessions are
// conversation-scoped scratch state; losing one under pressure costs the
// user a restart, not data.
type Store[T any] struct {
	cache *lru.Cache[string, T]
}

func New[T any](capacity int) (*Store[T], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[string, T](capacity)
	if err != nil {
		return nil, err
	}
	return &Store[T]{cache: cache}, nil
}

// Put stores or replaces the session under id.
func (s *Store[T]) Put(id string, session T) {
	s.cache.Add(id, session)
}

// Get fetches a session and marks it recently used.
func (s *Store[T]) Get(id string) (T, error) {
	session, ok := s.cache.Get(id)
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return session, nil
}

// Delete drops a session.
func (s *Store[T]) Delete(id string) {
	s.cache.Remove(id)
}

// Len reports how many sessions are live.
func (s *Store[T]) Len() int {
	return s.cache.Len()
}
