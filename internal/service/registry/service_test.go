package registry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-gate/internal/domain"
	"github.com/kirinyoku/tix-gate/internal/repository"
	"github.com/kirinyoku/tix-gate/internal/repository/memory"
	"github.com/kirinyoku/tix-gate/internal/service/registry"
)

func setupRegistry(t *testing.T, store registry.Persister) *registry.Service {
	t.Helper()

	r := registry.New(context.Background(), store, nil, registry.Config{})
	t.Cleanup(r.Close)
	require.NoError(t, r.WaitReady(context.Background()))
	return r
}

func newStore() *repository.SnapshotStore {
	return repository.NewSnapshotStore(memory.New(), nil)
}

func TestRegister(t *testing.T) {
	r := setupRegistry(t, newStore())
	ctx := context.Background()

	c, err := r.Register(ctx, "  Acme ")
	require.NoError(t, err)

	assert.Equal(t, "Acme", c.Name)
	assert.True(t, c.Active)
	assert.NotEmpty(t, c.ID)
	assert.True(t, strings.HasPrefix(c.APIKey, registry.KeyPrefix))
	assert.Len(t, c.APIKey, len(registry.KeyPrefix)+32)

	other, err := r.Register(ctx, "Beta")
	require.NoError(t, err)
	assert.NotEqual(t, c.APIKey, other.APIKey)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Company{c, other}, list)

	_, err = r.Register(ctx, " ")
	assert.ErrorIs(t, err, registry.ErrInvalidInput)
}

func TestAuthorize_RegenerateInvalidatesOldKey(t *testing.T) {
	r := setupRegistry(t, newStore())
	ctx := context.Background()

	c, err := r.Register(ctx, "Acme")
	require.NoError(t, err)

	ok, err := r.Authorize(ctx, "Acme", c.APIKey)
	require.NoError(t, err)
	assert.True(t, ok)

	regenerated, err := r.RegenerateKey(ctx, c.ID)
	require.NoError(t, err)
	assert.NotEqual(t, c.APIKey, regenerated.APIKey)
	assert.Equal(t, c.ID, regenerated.ID)

	ok, err = r.Authorize(ctx, "Acme", c.APIKey)
	require.NoError(t, err)
	assert.False(t, ok, "old key must stop working immediately")

	ok, err = r.Authorize(ctx, "Acme", regenerated.APIKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthorize_Rejections(t *testing.T) {
	r := setupRegistry(t, newStore())
	ctx := context.Background()

	acme, err := r.Register(ctx, "Acme")
	require.NoError(t, err)
	beta, err := r.Register(ctx, "Beta")
	require.NoError(t, err)

	cases := []struct {
		name, company, key string
	}{
		{"unknown company", "Gamma", acme.APIKey},
		{"key of another company", "Acme", beta.APIKey},
		{"name is case-sensitive", "acme", acme.APIKey},
		{"empty key", "Acme", ""},
		{"empty name", "", acme.APIKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := r.Authorize(ctx, tc.company, tc.key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSetActive(t *testing.T) {
	r := setupRegistry(t, newStore())
	ctx := context.Background()

	c, err := r.Register(ctx, "Acme")
	require.NoError(t, err)

	disabled, err := r.SetActive(ctx, c.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Active)
	assert.Equal(t, c.APIKey, disabled.APIKey)

	ok, err := r.Authorize(ctx, "Acme", c.APIKey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.SetActive(ctx, c.ID, true)
	require.NoError(t, err)

	ok, err = r.Authorize(ctx, "Acme", c.APIKey)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestDuplicateNames(t *testing.T) {
	r := setupRegistry(t, newStore())
	ctx := context.Background()

	first, err := r.Register(ctx, "Acme")
	require.NoError(t, err)
	second, err := r.Register(ctx, "Acme")
	require.NoError(t, err)

	for _, key := range []string{first.APIKey, second.APIKey} {
		ok, err := r.Authorize(ctx, "Acme", key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestDeleteAndGet(t *testing.T) {
	r := setupRegistry(t, newStore())
	ctx := context.Background()

	c, err := r.Register(ctx, "Acme")
	require.NoError(t, err)

	got, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	require.NoError(t, r.Delete(ctx, c.ID))
	assert.ErrorIs(t, r.Delete(ctx, c.ID), registry.ErrNotFound)

	_, err = r.Get(ctx, c.ID)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = r.RegenerateKey(ctx, c.ID)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	ok, err := r.Authorize(ctx, "Acme", c.APIKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistrySurvivesRestart(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	r := setupRegistry(t, store)
	c, err := r.Register(ctx, "Acme")
	require.NoError(t, err)
	r.Close()

	reloaded := setupRegistry(t, store)
	ok, err := reloaded.Authorize(ctx, "Acme", c.APIKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

type failingStore struct {
	*repository.SnapshotStore
}

func (failingStore) SaveRegistry(context.Context, domain.RegistrySnapshot) error {
	return errors.New("disk full")
}

func TestPersistenceFailure(t *testing.T) {
	r := setupRegistry(t, failingStore{newStore()})

	_, err := r.Register(context.Background(), "Acme")
	assert.ErrorIs(t, err, registry.ErrPersistence)

	list, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
