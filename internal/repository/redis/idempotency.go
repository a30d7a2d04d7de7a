package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	redisx "github.com/kirinyoku/tix-gate/internal/redis"
)

var (
	pendingMarker = []byte("PENDING")
	donePrefix    = []byte("DONE:")
)

// Claim is the outcome of reserving an idempotency key. Exactly one of
// the fields is meaningful: Replay holds the stored response of a finished
// request, Owned reports that the caller now runs the request.
type Claim struct {
	Replay []byte
	Owned  bool
}

// Busy reports that another request holds the key and has not finished.
func (c Claim) Busy() bool {
	return c.Replay == nil && !c.Owned
}

// IdempotencyStore remembers the response body of a request carrying an
// Idempotency-Key so a retried issue call returns the same ticket instead
// of minting a second one.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// Reserve looks up a finished response for key and, when there is none,
// tries to take ownership of it for pendingTTL.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string, pendingTTL time.Duration) (Claim, error) {
	const op = "repository.redis.IdempotencyStore.Reserve"

	k := redisx.KeyIdempotency(scope, key)

	if body, err := s.lookup(ctx, k); err != nil || body != nil {
		if err != nil {
			return Claim{}, fmt.Errorf("%s: %w", op, err)
		}
		return Claim{Replay: body}, nil
	}

	owned, err := s.rdb.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return Claim{}, fmt.Errorf("%s: %w", op, err)
	}
	if owned {
		return Claim{Owned: true}, nil
	}

	// Lost the race; the winner may already be done.
	body, err := s.lookup(ctx, k)
	if err != nil {
		return Claim{}, fmt.Errorf("%s: %w", op, err)
	}
	return Claim{Replay: body}, nil
}

// Complete stores the response of an owned request for the store TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key string, body []byte) error {
	const op = "repository.redis.IdempotencyStore.Complete"

	v := append(append([]byte{}, donePrefix...), body...)
	if err := s.rdb.Set(ctx, redisx.KeyIdempotency(scope, key), v, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Abandon drops an owned reservation so the client can retry.
func (s *IdempotencyStore) Abandon(ctx context.Context, scope, key string) error {
	const op = "repository.redis.IdempotencyStore.Abandon"

	if err := s.rdb.Del(ctx, redisx.KeyIdempotency(scope, key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *IdempotencyStore) lookup(ctx context.Context, k string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if body, ok := bytes.CutPrefix(v, donePrefix); ok {
		return body, nil
	}
	return nil, nil
}
