package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-gate/internal/repository"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "tickets")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	in := []byte("v1")
	require.NoError(t, s.Put(ctx, "tickets", in))
	in[0] = 'X'

	out, err := s.Get(ctx, "tickets")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), out, "stored bytes are copied on write")

	out[0] = 'Y'
	again, err := s.Get(ctx, "tickets")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again, "returned bytes are copied on read")
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	assert.ErrorIs(t, s.Put(ctx, "k", []byte("v")), context.Canceled)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
