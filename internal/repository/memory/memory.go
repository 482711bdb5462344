package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mapleship/delivery-api/internal/repository"
)

// Store is an in-memory KVStore for tests and local development.
// Expiry is enforced lazily on read.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func NewStore() *Store {
	return &Store{items: make(map[string]entry)}
}

var _ repository.KVStore = (*Store)(nil)

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, nil
	}

	val := make([]byte, len(e.value))
	copy(val, e.value)
	return val, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Len reports the number of live keys, counting unexpired entries only.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	now := time.Now()
	for _, e := range s.items {
		if e.expiresAt.IsZero() || now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
