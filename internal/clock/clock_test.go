package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	f := NewFake(start)

	assert.Equal(t, time.UTC, f.Now().Location())
	assert.True(t, start.Equal(f.Now()))

	next := f.Advance(90 * time.Second)
	assert.Equal(t, next, f.Now())
	assert.Equal(t, 90*time.Second, next.Sub(start))
}

func TestRealIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Real().Now().Location())
}
