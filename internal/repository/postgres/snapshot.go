package postgres

import (
	"context"
	"fmt"
	"time"
)

const maxPutAttempts = 3

// EnsureSchema creates the snapshots table when it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const op = "postgres.Store.EnsureSchema"

	_, err := s.handle().Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			name       TEXT PRIMARY KEY,
			body       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table))
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "postgres.Store.Get"

	var body []byte
	if err := s.handle().QueryRow(ctx,
		fmt.Sprintf(`SELECT body FROM %s WHERE name = $1`, s.table),
		key,
	).Scan(&body); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return body, nil
}

// Put upserts the blob. Serialization failures and deadlocks are retried
// a few times before giving up.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const op = "postgres.Store.Put"

	query := fmt.Sprintf(`INSERT INTO %s (name, body, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE
		 SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`, s.table)

	var err error
	for attempt := range maxPutAttempts {
		if _, err = s.handle().Exec(ctx, query, key, value); err == nil {
			return nil
		}
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return wrapDBErr(op, err)
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}

	return wrapDBErr(op, err)
}
