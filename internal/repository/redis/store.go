package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisx "github.com/kirinyoku/tix-gate/internal/redis"
	"github.com/kirinyoku/tix-gate/internal/repository"
)

// Store keeps snapshot blobs as plain redis strings without expiry.
// Durability is whatever the server's AOF/RDB settings provide.
type Store struct {
	rdb *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{rdb: client}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "redisrepo.Store.Get"

	b, err := s.rdb.Get(ctx, redisx.KeySnapshot(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const op = "redisrepo.Store.Put"

	if err := s.rdb.Set(ctx, redisx.KeySnapshot(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
