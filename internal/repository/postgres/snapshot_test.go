package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-gate/internal/repository"
)

type fakeRow struct {
	body []byte
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.body
	return nil
}

// fakeDB keeps blobs in a map and fails Exec with the queued errors first.
type fakeDB struct {
	blobs    map[string][]byte
	execErrs []error
	execs    int
	queries  []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{blobs: make(map[string][]byte)}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs++
	f.queries = append(f.queries, sql)

	if len(f.execErrs) > 0 {
		err := f.execErrs[0]
		f.execErrs = f.execErrs[1:]
		return pgconn.CommandTag{}, err
	}

	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT") {
		f.blobs[args[0].(string)] = args[1].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)

	b, ok := f.blobs[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{body: b}
}

func TestStore_GetPut(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	s := newStore(db)

	require.NoError(t, s.EnsureSchema(ctx))
	assert.Contains(t, db.queries[0], "CREATE TABLE IF NOT EXISTS snapshots")

	_, err := s.Get(ctx, repository.KeyLedger)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, err, pgx.ErrNoRows, "driver error stays in the chain")

	require.NoError(t, s.Put(ctx, repository.KeyLedger, []byte("snap")))
	got, err := s.Get(ctx, repository.KeyLedger)
	require.NoError(t, err)
	assert.Equal(t, []byte("snap"), got)
}

func TestStore_PutRetriesSerializationFailures(t *testing.T) {
	db := newFakeDB()
	db.execErrs = []error{&pgconn.PgError{Code: "40001"}, &pgconn.PgError{Code: "40P01"}}
	s := newStore(db)

	require.NoError(t, s.Put(context.Background(), repository.KeyLedger, []byte("snap")))
	assert.Equal(t, 3, db.execs)
	assert.Equal(t, []byte("snap"), db.blobs[repository.KeyLedger])
}

func TestStore_PutGivesUp(t *testing.T) {
	errConn := errors.New("connection reset")

	db := newFakeDB()
	db.execErrs = []error{errConn}
	err := newStore(db).Put(context.Background(), repository.KeyLedger, []byte("snap"))
	assert.ErrorIs(t, err, errConn)
	assert.Equal(t, 1, db.execs, "only serialization failures are retried")

	db = newFakeDB()
	for range maxPutAttempts {
		db.execErrs = append(db.execErrs, &pgconn.PgError{Code: "40001"})
	}
	err = newStore(db).Put(context.Background(), repository.KeyLedger, []byte("snap"))
	assert.Error(t, err)
	assert.Equal(t, maxPutAttempts, db.execs)
}

func TestTranslateDBErr(t *testing.T) {
	assert.Nil(t, translateDBErr(nil))
	assert.ErrorIs(t, translateDBErr(pgx.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, translateDBErr(&pgconn.PgError{Code: "23505"}), repository.ErrConflict)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, other, translateDBErr(other))

	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsRetryable(other))
	assert.False(t, IsRetryable(errors.New("plain")))
}
