package uow

import (
	"context"
	"errors"
)

// AfterCommit is a function that runs after a mutation has been persisted
// and published. Hooks run in the caller's goroutine, outside the actor.
type AfterCommit func(ctx context.Context)

// State is a value a unit of work can be staged on. Clone must return a
// copy that can be changed without affecting the receiver.
type State[S any] interface {
	Clone() S
}

// Work stages a mutation on next, a private clone of the current state.
// Returning an error discards next. Returning ErrNoChange discards next
// without reporting an error and skips the commit.
type Work[S any] func(ctx context.Context, next S, after func(AfterCommit)) error

type LoadFunc[S any] func(ctx context.Context) (S, error)

// CommitFunc durably records next. It runs before next becomes visible
// to readers; an error leaves the published state untouched.
type CommitFunc[S any] func(ctx context.Context, next S) error

var (
	ErrNoChange = errors.New("uow: nothing to commit")
	ErrClosed   = errors.New("uow: actor closed")
)

type outcome struct {
	err   error
	hooks []AfterCommit
}

func runHooks(ctx context.Context, hooks []AfterCommit) {
	for _, h := range hooks {
		h(ctx)
	}
}
