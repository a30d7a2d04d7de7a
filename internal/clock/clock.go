package clock

import (
	"sync"
	"time"
)

// Clock abstracts the time source so ledger timestamps are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by time.Now, normalized to UTC so that
// values survive a snapshot round trip unchanged.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Fake is a manually driven Clock. It is safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	current time.Time
}

func NewFake(initial time.Time) *Fake {
	return &Fake{current: initial.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Advance moves the clock forward by d and returns the new time.
func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
	return f.current
}
