package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirinyoku/tix-gate/internal/codec"
	"github.com/kirinyoku/tix-gate/internal/domain"
)

// BlobStore is a durable key/value store holding opaque snapshot blobs.
// Get returns ErrNotFound when no blob was ever written under key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

const (
	KeyLedger   = "tickets"
	KeyRegistry = "companies"
)

// SnapshotStore encodes ledger and registry snapshots with a codec and
// keeps them in a BlobStore under fixed keys.
type SnapshotStore struct {
	blobs BlobStore
	codec codec.Codec
}

func NewSnapshotStore(blobs BlobStore, c codec.Codec) *SnapshotStore {
	if c == nil {
		c = codec.JSON{}
	}
	return &SnapshotStore{blobs: blobs, codec: c}
}

// LoadLedger returns nil, nil when nothing has been persisted yet.
func (s *SnapshotStore) LoadLedger(ctx context.Context) (*domain.LedgerSnapshot, error) {
	const op = "repository.SnapshotStore.LoadLedger"

	var snap domain.LedgerSnapshot
	ok, err := s.load(ctx, KeyLedger, &snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, nil
	}

	return &snap, nil
}

func (s *SnapshotStore) SaveLedger(ctx context.Context, snap domain.LedgerSnapshot) error {
	const op = "repository.SnapshotStore.SaveLedger"

	if err := s.save(ctx, KeyLedger, snap); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoadRegistry returns nil, nil when nothing has been persisted yet.
func (s *SnapshotStore) LoadRegistry(ctx context.Context) (*domain.RegistrySnapshot, error) {
	const op = "repository.SnapshotStore.LoadRegistry"

	var snap domain.RegistrySnapshot
	ok, err := s.load(ctx, KeyRegistry, &snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, nil
	}

	return &snap, nil
}

func (s *SnapshotStore) SaveRegistry(ctx context.Context, snap domain.RegistrySnapshot) error {
	const op = "repository.SnapshotStore.SaveRegistry"

	if err := s.save(ctx, KeyRegistry, snap); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SnapshotStore) load(ctx context.Context, key string, out any) (bool, error) {
	b, err := s.blobs.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.codec.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s (%s): %w", key, s.codec.Name(), err)
	}

	return true, nil
}

func (s *SnapshotStore) save(ctx context.Context, key string, v any) error {
	b, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s (%s): %w", key, s.codec.Name(), err)
	}

	return s.blobs.Put(ctx, key, b)
}
