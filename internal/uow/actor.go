package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Config struct {
	// Name appears in log lines.
	Name   string
	Logger *slog.Logger
	// QueueSize bounds the mailbox. Callers block once it is full.
	QueueSize int
	// CommitTimeout bounds a single commit. Zero means no bound.
	CommitTimeout time.Duration
}

// Actor serializes every mutation of one state value through a single
// goroutine, in arrival order. Reads run concurrently under a read lock
// and only ever see fully committed states.
type Actor[S State[S]] struct {
	name    string
	logger  *slog.Logger
	commit  CommitFunc[S]
	timeout time.Duration

	mu    sync.RWMutex
	state S

	loadErr error
	ready   chan struct{}

	jobs      chan job[S]
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type job[S any] struct {
	ctx    context.Context
	work   Work[S]
	result chan outcome
}

// Start launches the actor. The state is loaded in the background with
// ctx; mutations and reads submitted meanwhile wait for the load to
// finish instead of failing.
func Start[S State[S]](ctx context.Context, cfg Config, load LoadFunc[S], commit CommitFunc[S]) *Actor[S] {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	a := &Actor[S]{
		name:    cfg.Name,
		logger:  cfg.Logger.With("actor", cfg.Name),
		commit:  commit,
		timeout: cfg.CommitTimeout,
		ready:   make(chan struct{}),
		jobs:    make(chan job[S], cfg.QueueSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go a.run(ctx, load)

	return a
}

func (a *Actor[S]) run(ctx context.Context, load LoadFunc[S]) {
	defer close(a.done)

	start := time.Now()
	state, err := load(ctx)
	a.mu.Lock()
	a.state = state
	a.loadErr = err
	a.mu.Unlock()
	close(a.ready)

	if err != nil {
		a.logger.Error("state load failed", "error", err)
	} else {
		a.logger.Info("state loaded", "took", time.Since(start))
	}

	for {
		select {
		case <-a.quit:
			return
		case j := <-a.jobs:
			j.result <- a.apply(j)
		}
	}
}

func (a *Actor[S]) apply(j job[S]) (out outcome) {
	if a.loadErr != nil {
		return outcome{err: a.loadErr}
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("mutation panicked", "panic", r)
			out = outcome{err: fmt.Errorf("uow: %s: mutation panicked: %v", a.name, r)}
		}
	}()

	// The job runs to completion once accepted, even if the caller gives up.
	ctx := context.WithoutCancel(j.ctx)

	next := a.state.Clone()
	var hooks []AfterCommit

	err := j.work(ctx, next, func(h AfterCommit) {
		hooks = append(hooks, h)
	})
	if errors.Is(err, ErrNoChange) {
		return outcome{}
	}
	if err != nil {
		return outcome{err: err}
	}

	commitCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if err := a.commit(commitCtx, next); err != nil {
		return outcome{err: err}
	}

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	return outcome{hooks: hooks}
}

// Do submits work and waits for it to be applied and committed. ctx only
// bounds the wait for a mailbox slot.
func (a *Actor[S]) Do(ctx context.Context, work Work[S]) error {
	j := job[S]{
		ctx:    ctx,
		work:   work,
		result: make(chan outcome, 1),
	}

	select {
	case a.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.quit:
		return ErrClosed
	}

	var out outcome
	select {
	case out = <-j.result:
	case <-a.done:
		select {
		case out = <-j.result:
		default:
			return ErrClosed
		}
	}

	if out.err != nil {
		return out.err
	}

	runHooks(context.WithoutCancel(ctx), out.hooks)
	return nil
}

// View calls fn with the current committed state once loading finished.
// fn must neither retain nor modify the state.
func (a *Actor[S]) View(ctx context.Context, fn func(state S)) error {
	if err := a.WaitReady(ctx); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	fn(a.state)
	return nil
}

// WaitReady blocks until the initial load finished and returns its error.
func (a *Actor[S]) WaitReady(ctx context.Context) error {
	select {
	case <-a.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	return a.loadErr
}

// Close stops the actor after the job in flight, if any. Queued jobs
// fail with ErrClosed.
func (a *Actor[S]) Close() {
	a.closeOnce.Do(func() {
		close(a.quit)
	})
	<-a.done
}
