package registry

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("company not found")
	ErrInvalidInput = errors.New("invalid company input")
	ErrPersistence  = errors.New("company registry could not be persisted")
)
