package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists snapshot blobs in a single postgres table.
type Store struct {
	db    DB
	table string
}

func NewStore(pool *pgxpool.Pool) *Store {
	return newStore(pool)
}

func newStore(db DB) *Store {
	return &Store{
		db:    db,
		table: "snapshots",
	}
}

func (s *Store) handle() DB {
	return s.db
}
