package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/kirinyoku/tix-gate/internal/repository"
)

type snapshotRow struct {
	bun.BaseModel `bun:"table:snapshots"`

	Name      string    `bun:"name,pk"`
	Body      []byte    `bun:"body,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Store is an embedded, file-backed blob store for single-node
// deployments that do not run postgres or redis.
type Store struct {
	db *bun.DB
}

// Open opens (creating if needed) the sqlite database at path and makes
// sure the snapshots table exists. ":memory:" opens a private in-memory
// database that lives as long as the Store.
func Open(ctx context.Context, path string) (*Store, error) {
	const op = "sqlite.Open"

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// One long-lived connection: the ledger has a single writer, and an
	// in-memory database exists only on the connection that created it.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	s := &Store{db: bun.NewDB(sqldb, sqlitedialect.New())}

	if path != ":memory:" {
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=FULL",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := s.db.ExecContext(ctx, pragma); err != nil {
				_ = s.db.Close()
				return nil, fmt.Errorf("%s: %s: %w", op, pragma, err)
			}
		}
	}

	if _, err := s.db.NewCreateTable().
		Model((*snapshotRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("%s: create table: %w", op, err)
	}

	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "sqlite.Store.Get"

	var row snapshotRow
	err := s.db.NewSelect().
		Model(&row).
		Where("name = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return row.Body, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const op = "sqlite.Store.Put"

	row := snapshotRow{
		Name:      key,
		Body:      value,
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (name) DO UPDATE").
		Set("body = EXCLUDED.body").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
