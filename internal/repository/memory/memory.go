package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/kirinyoku/tix-gate/internal/repository"
)

// Store keeps blobs in process memory. Nothing survives a restart; it
// backs tests and the "memory" store driver.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return slices.Clone(b), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = slices.Clone(value)
	return nil
}
