package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-gate/internal/codec"
	"github.com/kirinyoku/tix-gate/internal/domain"
	"github.com/kirinyoku/tix-gate/internal/repository"
	"github.com/kirinyoku/tix-gate/internal/repository/memory"
)

func sampleLedger() domain.LedgerSnapshot {
	at := time.Date(2026, 5, 1, 12, 30, 15, 123456789, time.UTC)
	return domain.LedgerSnapshot{
		Version: domain.SnapshotVersion,
		Tickets: []domain.Ticket{
			{ID: "BUTTERFLY-1", Code: "BUTTERFLY-1", Category: domain.CategoryStandard, IssuedAt: at},
			{
				ID: "BUTTERFLY-2", Code: "BUTTERFLY-2", Category: domain.CategoryGroup, IssuedAt: at,
				Activation: &domain.Activation{By: "Acme", At: at.Add(time.Minute)},
				Validation: &domain.Validation{At: at.Add(time.Hour), CheckInCount: 1},
			},
		},
		ActivationLog: []domain.ActivationLogEntry{
			{ID: "a1", TicketID: "BUTTERFLY-2", CompanyName: "Acme", Timestamp: at.Add(time.Minute)},
		},
		ValidationLog: []domain.ValidationLogEntry{
			{ID: "v1", TicketID: "BUTTERFLY-2", Timestamp: at.Add(time.Hour), ScannerLocation: "east", Outcome: domain.OutcomeValid},
			{ID: "v2", TicketID: "BUTTERFLY-2", Timestamp: at.Add(2 * time.Hour), Outcome: domain.OutcomeDuplicate},
		},
	}
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON{}, codec.CBOR()} {
		t.Run(c.Name(), func(t *testing.T) {
			ctx := context.Background()
			s := repository.NewSnapshotStore(memory.New(), c)

			got, err := s.LoadLedger(ctx)
			require.NoError(t, err)
			assert.Nil(t, got, "missing snapshot means start empty")

			want := sampleLedger()
			require.NoError(t, s.SaveLedger(ctx, want))

			got, err = s.LoadLedger(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, want, *got)

			reg := domain.RegistrySnapshot{
				Version: domain.SnapshotVersion,
				Companies: []domain.Company{
					{ID: "c1", Name: "Acme", APIKey: "COMP_00", CreatedAt: want.Tickets[0].IssuedAt, Active: true},
				},
			}
			require.NoError(t, s.SaveRegistry(ctx, reg))

			gotReg, err := s.LoadRegistry(ctx)
			require.NoError(t, err)
			require.NotNil(t, gotReg)
			assert.Equal(t, reg, *gotReg)
		})
	}
}

func TestSnapshotStore_KeysAreSeparate(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	s := repository.NewSnapshotStore(blobs, nil)

	require.NoError(t, s.SaveLedger(ctx, sampleLedger()))

	reg, err := s.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Nil(t, reg)

	_, err = blobs.Get(ctx, repository.KeyLedger)
	assert.NoError(t, err)
}

func TestSnapshotStore_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	require.NoError(t, blobs.Put(ctx, repository.KeyLedger, []byte{0xff, 0x00}))

	_, err := repository.NewSnapshotStore(blobs, codec.JSON{}).LoadLedger(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}
