package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("ticket not found")
	ErrAlreadyActivated = errors.New("ticket already activated")
	ErrNotActivated     = errors.New("ticket has not been activated")
	ErrAlreadyValidated = errors.New("ticket already used")
	ErrPersistence      = errors.New("ledger persistence failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// AlreadyActivatedError names the company that activated the ticket first.
type AlreadyActivatedError struct {
	By string
	At time.Time
}

func (e *AlreadyActivatedError) Error() string {
	return fmt.Sprintf("ticket already activated by %s", e.By)
}

func (e *AlreadyActivatedError) Is(target error) bool {
	return target == ErrAlreadyActivated
}

// AlreadyValidatedError carries the time of the one successful check-in.
type AlreadyValidatedError struct {
	UsedAt time.Time
}

func (e *AlreadyValidatedError) Error() string {
	return fmt.Sprintf("ticket already used at %s", e.UsedAt.Format(time.RFC3339))
}

func (e *AlreadyValidatedError) Is(target error) bool {
	return target == ErrAlreadyValidated
}

// outcomeOf labels err for metrics.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyActivated):
		return "already_activated"
	case errors.Is(err, ErrNotActivated):
		return "not_activated"
	case errors.Is(err, ErrAlreadyValidated):
		return "already_validated"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
