package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/tix-gate/internal/repository"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable reports whether a failed snapshot write can simply be
// attempted again.
func IsRetryable(err error) bool {
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

func translateDBErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return repository.ErrNotFound
	case sqlState(err) == codeUniqueViolation:
		return repository.ErrConflict
	}
	return err
}

// wrapDBErr prefixes err with op and puts the repository sentinel in front
// of it when the driver error has one. The driver error stays in the chain.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if translated := translateDBErr(err); translated != err {
		return fmt.Errorf("%s: %w: %w", op, translated, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
