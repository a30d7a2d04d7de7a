package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kirinyoku/tix-gate/internal/domain"
)

// state is the ledger contents owned by the actor. Published states are
// never written again; mutations work on a Clone.
type state struct {
	tickets     map[string]domain.Ticket
	order       []string
	activations []domain.ActivationLogEntry
	validations []domain.ValidationLogEntry
}

func newState() *state {
	return &state{tickets: make(map[string]domain.Ticket)}
}

// Clone copies the ticket map. The append-only slices are shared with
// their capacity clipped, so an append on the clone always reallocates
// and never writes into the receiver's backing array.
func (s *state) Clone() *state {
	return &state{
		tickets:     maps.Clone(s.tickets),
		order:       slices.Clip(s.order),
		activations: slices.Clip(s.activations),
		validations: slices.Clip(s.validations),
	}
}

func (s *state) add(t domain.Ticket) {
	s.tickets[t.Code] = t
	s.order = append(s.order, t.Code)
}

// remove deletes every ticket for which drop returns true. The order slice is
// rebuilt rather than compacted in place because it may be shared.
func (s *state) remove(drop func(t domain.Ticket) bool) int {
	kept := make([]string, 0, len(s.order))
	removed := 0
	for _, code := range s.order {
		if drop(s.tickets[code]) {
			delete(s.tickets, code)
			removed++
			continue
		}
		kept = append(kept, code)
	}
	s.order = kept
	return removed
}

func (s *state) list() []domain.Ticket {
	out := make([]domain.Ticket, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.tickets[code])
	}
	return out
}

func (s *state) snapshot() domain.LedgerSnapshot {
	return domain.LedgerSnapshot{
		Version:       domain.SnapshotVersion,
		Tickets:       s.list(),
		ActivationLog: append(make([]domain.ActivationLogEntry, 0, len(s.activations)), s.activations...),
		ValidationLog: append(make([]domain.ValidationLogEntry, 0, len(s.validations)), s.validations...),
	}
}

func stateFromSnapshot(snap *domain.LedgerSnapshot) (*state, error) {
	s := newState()
	if snap == nil {
		return s, nil
	}

	if snap.Version > domain.SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, domain.SnapshotVersion)
	}

	for _, t := range snap.Tickets {
		if _, dup := s.tickets[t.Code]; dup {
			return nil, fmt.Errorf("snapshot holds ticket %q twice", t.Code)
		}
		if t.Validation != nil && t.Activation == nil {
			return nil, fmt.Errorf("snapshot ticket %q is validated but not activated", t.Code)
		}
		s.add(t)
	}

	s.activations = slices.Clone(snap.ActivationLog)
	s.validations = slices.Clone(snap.ValidationLog)

	return s, nil
}
