package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-gate/internal/domain"
	"github.com/kirinyoku/tix-gate/internal/service/report"
)

type staticLedger struct {
	snap domain.LedgerSnapshot
	err  error
}

func (s staticLedger) Snapshot(context.Context) (domain.LedgerSnapshot, error) {
	return s.snap, s.err
}

func ticket(id, by string, validated bool) domain.Ticket {
	t := domain.Ticket{ID: id, Code: id, Category: domain.CategoryStandard}
	if by != "" {
		t.Activation = &domain.Activation{By: by, At: time.Unix(100, 0).UTC()}
	}
	if validated {
		t.Validation = &domain.Validation{At: time.Unix(200, 0).UTC(), CheckInCount: 1}
	}
	return t
}

func fixtureSnapshot() domain.LedgerSnapshot {
	return domain.LedgerSnapshot{
		Version: domain.SnapshotVersion,
		Tickets: []domain.Ticket{
			ticket("t1", "", false),
			ticket("t2", "Acme", false),
			ticket("t3", "Acme", true),
			ticket("t4", "Ghost Ltd", true),
		},
		ActivationLog: make([]domain.ActivationLogEntry, 5),
		ValidationLog: make([]domain.ValidationLogEntry, 7),
	}
}

func TestStats(t *testing.T) {
	svc := report.New(staticLedger{snap: fixtureSnapshot()})

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Stats{
		TotalTickets:     4,
		ActivatedTickets: 3,
		ValidatedTickets: 2,
		ActivationLogs:   5,
		ValidationLogs:   7,
	}, st)
}

func TestGroupActivationsByCompany(t *testing.T) {
	svc := report.New(staticLedger{snap: fixtureSnapshot()})

	groups, err := svc.GroupActivationsByCompany(context.Background())
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups["Acme"].Count)
	assert.Equal(t, []string{"t2", "t3"}, []string{groups["Acme"].Tickets[0].ID, groups["Acme"].Tickets[1].ID})
	assert.Equal(t, 1, groups["Ghost Ltd"].Count, "unregistered names still group")
}

func TestEmptyLedger(t *testing.T) {
	svc := report.New(staticLedger{})

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st)

	groups, err := svc.GroupActivationsByCompany(context.Background())
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSnapshotError(t *testing.T) {
	errDown := errors.New("ledger closed")
	svc := report.New(staticLedger{err: errDown})

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, errDown)

	_, err = svc.GroupActivationsByCompany(context.Background())
	assert.ErrorIs(t, err, errDown)
}
