package uow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	n    int
	seen []int
}

func (c *counter) Clone() *counter {
	return &counter{n: c.n, seen: append([]int(nil), c.seen...)}
}

func loadCounter(n int) LoadFunc[*counter] {
	return func(context.Context) (*counter, error) {
		return &counter{n: n}, nil
	}
}

func okCommit(context.Context, *counter) error { return nil }

func increment(ctx context.Context, next *counter, after func(AfterCommit)) error {
	next.n++
	next.seen = append(next.seen, next.n)
	return nil
}

func readN(t *testing.T, a *Actor[*counter]) int {
	t.Helper()

	var n int
	require.NoError(t, a.View(context.Background(), func(c *counter) { n = c.n }))
	return n
}

func TestActor_SerializesConcurrentMutations(t *testing.T) {
	var commits atomic.Int64
	a := Start(context.Background(), Config{Name: "test"}, loadCounter(0),
		func(context.Context, *counter) error {
			commits.Add(1)
			return nil
		})
	defer a.Close()

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.Do(context.Background(), increment))
		}()
	}
	wg.Wait()

	var seen []int
	require.NoError(t, a.View(context.Background(), func(c *counter) { seen = c.seen }))

	assert.Equal(t, workers, readN(t, a))
	assert.Equal(t, int64(workers), commits.Load())
	for i, v := range seen {
		assert.Equal(t, i+1, v, "mutations interleaved")
	}
}

func TestActor_ReadsAndWritesWaitForLoad(t *testing.T) {
	release := make(chan struct{})
	a := Start(context.Background(), Config{Name: "test"},
		func(context.Context) (*counter, error) {
			<-release
			return &counter{n: 10}, nil
		}, okCommit)
	defer a.Close()

	done := make(chan error, 1)
	go func() { done <- a.Do(context.Background(), increment) }()

	select {
	case <-done:
		t.Fatal("mutation ran before load finished")
	case <-time.After(50 * time.Millisecond):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.View(ctx, func(*counter) {}), context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 11, readN(t, a))
}

func TestActor_CommitFailureDiscardsState(t *testing.T) {
	errDisk := errors.New("disk full")
	var hookRan bool

	a := Start(context.Background(), Config{Name: "test"}, loadCounter(1),
		func(context.Context, *counter) error { return errDisk })
	defer a.Close()

	err := a.Do(context.Background(), func(ctx context.Context, next *counter, after func(AfterCommit)) error {
		next.n = 99
		after(func(context.Context) { hookRan = true })
		return nil
	})

	assert.ErrorIs(t, err, errDisk)
	assert.False(t, hookRan)
	assert.Equal(t, 1, readN(t, a))
}

func TestActor_WorkErrorSkipsCommit(t *testing.T) {
	errRule := errors.New("rule violated")
	var commits atomic.Int64

	a := Start(context.Background(), Config{Name: "test"}, loadCounter(5),
		func(context.Context, *counter) error {
			commits.Add(1)
			return nil
		})
	defer a.Close()

	err := a.Do(context.Background(), func(ctx context.Context, next *counter, after func(AfterCommit)) error {
		next.n = 0
		return errRule
	})
	assert.ErrorIs(t, err, errRule)

	err = a.Do(context.Background(), func(ctx context.Context, next *counter, after func(AfterCommit)) error {
		next.n = 0
		return ErrNoChange
	})
	assert.NoError(t, err)

	assert.Zero(t, commits.Load())
	assert.Equal(t, 5, readN(t, a))
}

func TestActor_HooksRunAfterPublish(t *testing.T) {
	a := Start(context.Background(), Config{Name: "test"}, loadCounter(0), okCommit)
	defer a.Close()

	var observed int
	err := a.Do(context.Background(), func(ctx context.Context, next *counter, after func(AfterCommit)) error {
		next.n = 7
		after(func(ctx context.Context) {
			_ = a.View(ctx, func(c *counter) { observed = c.n })
		})
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, observed)
}

func TestActor_LoadErrorFailsEveryCall(t *testing.T) {
	errCorrupt := errors.New("corrupt snapshot")
	a := Start(context.Background(), Config{Name: "test"},
		func(context.Context) (*counter, error) { return nil, errCorrupt }, okCommit)
	defer a.Close()

	assert.ErrorIs(t, a.WaitReady(context.Background()), errCorrupt)
	assert.ErrorIs(t, a.Do(context.Background(), increment), errCorrupt)
	assert.ErrorIs(t, a.View(context.Background(), func(*counter) {}), errCorrupt)
}

func TestActor_PanicBecomesError(t *testing.T) {
	a := Start(context.Background(), Config{Name: "test"}, loadCounter(3), okCommit)
	defer a.Close()

	err := a.Do(context.Background(), func(ctx context.Context, next *counter, after func(AfterCommit)) error {
		next.n = 100
		panic("boom")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 3, readN(t, a))
	assert.NoError(t, a.Do(context.Background(), increment))
}

func TestActor_CommitTimeout(t *testing.T) {
	a := Start(context.Background(), Config{Name: "test", CommitTimeout: 20 * time.Millisecond}, loadCounter(0),
		func(ctx context.Context, _ *counter) error {
			<-ctx.Done()
			return ctx.Err()
		})
	defer a.Close()

	err := a.Do(context.Background(), increment)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, readN(t, a))
}

func TestActor_CancelledCallerStillCompletes(t *testing.T) {
	started := make(chan struct{})
	finish := make(chan struct{})

	a := Start(context.Background(), Config{Name: "test"}, loadCounter(0),
		func(ctx context.Context, _ *counter) error {
			close(started)
			<-finish
			return ctx.Err()
		})
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Do(ctx, increment) }()

	<-started
	cancel()
	close(finish)

	require.NoError(t, <-done)
	assert.Equal(t, 1, readN(t, a))
}

func TestActor_ClosedRejectsWork(t *testing.T) {
	a := Start(context.Background(), Config{Name: "test"}, loadCounter(2), okCommit)
	require.NoError(t, a.WaitReady(context.Background()))
	a.Close()

	assert.ErrorIs(t, a.Do(context.Background(), increment), ErrClosed)
	assert.Equal(t, 2, readN(t, a))
}
