package report

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tix-gate/internal/domain"
)

// Snapshotter yields one consistent copy of the ledger.
type Snapshotter interface {
	Snapshot(ctx context.Context) (domain.LedgerSnapshot, error)
}

// Service derives read-only views from ledger snapshots. It holds no state.
type Service struct {
	ledger Snapshotter
}

func New(ledger Snapshotter) *Service {
	return &Service{ledger: ledger}
}

// Stats counts tickets by state and the entries of both audit logs.
// A validated ticket counts as activated too.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	const op = "service.report.Stats"

	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("%s: %w", op, err)
	}

	return StatsOf(snap), nil
}

// GroupActivationsByCompany groups attributed tickets by the literal
// company name stored on them, whether or not that company still exists.
func (s *Service) GroupActivationsByCompany(ctx context.Context) (map[string]domain.CompanyActivations, error) {
	const op = "service.report.GroupActivationsByCompany"

	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return GroupOf(snap), nil
}

func StatsOf(snap domain.LedgerSnapshot) domain.Stats {
	st := domain.Stats{
		TotalTickets:   len(snap.Tickets),
		ActivationLogs: len(snap.ActivationLog),
		ValidationLogs: len(snap.ValidationLog),
	}

	for _, t := range snap.Tickets {
		if t.Activation != nil {
			st.ActivatedTickets++
		}
		if t.Validation != nil {
			st.ValidatedTickets++
		}
	}

	return st
}

func GroupOf(snap domain.LedgerSnapshot) map[string]domain.CompanyActivations {
	groups := make(map[string]domain.CompanyActivations)

	for _, t := range snap.Tickets {
		if t.Activation == nil {
			continue
		}

		g := groups[t.Activation.By]
		g.Count++
		g.Tickets = append(g.Tickets, t)
		groups[t.Activation.By] = g
	}

	return groups
}
