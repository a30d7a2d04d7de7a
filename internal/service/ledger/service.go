package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-gate/internal/clock"
	"github.com/kirinyoku/tix-gate/internal/domain"
	"github.com/kirinyoku/tix-gate/internal/uow"
)

// Persister is the durable side of the ledger. LoadLedger returns nil, nil
// when nothing was stored yet.
type Persister interface {
	LoadLedger(ctx context.Context) (*domain.LedgerSnapshot, error)
	SaveLedger(ctx context.Context, snap domain.LedgerSnapshot) error
}

// Notifier receives an event after every committed mutation.
type Notifier interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

type Recorder interface {
	ObserveOperation(operation, outcome string)
	ObserveSave(took time.Duration, err error)
}

type Config struct {
	CodePrefix    string
	MaxBatch      int
	QueueSize     int
	CommitTimeout time.Duration
	Clock         clock.Clock
}

const DefaultCodePrefix = "BUTTERFLY-"

// Service is the single-writer ticket ledger. Construct one per process
// and share it; every mutation goes through its actor.
type Service struct {
	actor    *uow.Actor[*state]
	store    Persister
	notifier Notifier
	metrics  Recorder
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

// New starts the ledger and begins loading the persisted snapshot with
// ctx. Calls made before the load completes wait for it. notifier and
// metrics may be nil.
func New(
	ctx context.Context,
	store Persister,
	notifier Notifier,
	metrics Recorder,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = DefaultCodePrefix
	}

	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 500
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Service{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		clock:    cfg.Clock,
		logger:   logger.With("component", "ledger"),
		cfg:      cfg,
	}

	s.actor = uow.Start(ctx, uow.Config{
		Name:          "ledger",
		Logger:        logger,
		QueueSize:     cfg.QueueSize,
		CommitTimeout: cfg.CommitTimeout,
	}, s.load, s.commit)

	return s
}

func (s *Service) load(ctx context.Context) (*state, error) {
	snap, err := s.store.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	st, err := stateFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.Info("ledger loaded",
		"tickets", len(st.order),
		"activation_logs", len(st.activations),
		"validation_logs", len(st.validations),
	)

	return st, nil
}

func (s *Service) commit(ctx context.Context, next *state) error {
	start := time.Now()
	err := s.store.SaveLedger(ctx, next.snapshot())
	if s.metrics != nil {
		s.metrics.ObserveSave(time.Since(start), err)
	}
	if err != nil {
		s.logger.Error("ledger snapshot not saved, mutation discarded", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return nil
}

// WaitReady blocks until the initial load finished and returns its error.
func (s *Service) WaitReady(ctx context.Context) error {
	return s.actor.WaitReady(ctx)
}

// Close stops accepting mutations. Reads keep working on the last
// committed state.
func (s *Service) Close() {
	s.actor.Close()
}

// Issue creates a ticket in the issued state.
//
// Parameters:
//   - ctx: request-scoped context.
//   - category: fare class of the ticket.
//
// Returns:
//   - domain.Ticket: the new ticket; its code equals its id.
//   - error: ledger.ErrPersistence if the snapshot could not be saved.
func (s *Service) Issue(ctx context.Context, category domain.Category) (domain.Ticket, error) {
	const op = "service.ledger.Issue"

	tickets, err := s.issue(ctx, category, 1)
	s.observe("issue", err)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return tickets[0], nil
}

// IssueBatch creates n tickets of one category in a single mutation, so
// the whole batch is persisted with one snapshot write.
//
// Returns:
//   - error: ledger.ErrInvalidInput if n is outside 1..MaxBatch.
//   - error: ledger.ErrPersistence if the snapshot could not be saved.
func (s *Service) IssueBatch(ctx context.Context, category domain.Category, n int) ([]domain.Ticket, error) {
	const op = "service.ledger.IssueBatch"

	if n < 1 || n > s.cfg.MaxBatch {
		err := fmt.Errorf("%w: batch size %d outside 1..%d", ErrInvalidInput, n, s.cfg.MaxBatch)
		s.observe("issue_batch", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tickets, err := s.issue(ctx, category, n)
	s.observe("issue_batch", err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tickets, nil
}

func (s *Service) issue(ctx context.Context, category domain.Category, n int) ([]domain.Ticket, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	var issued []domain.Ticket

	err := s.actor.Do(ctx, func(ctx context.Context, next *state, after func(uow.AfterCommit)) error {
		now := s.clock.Now()
		issued = make([]domain.Ticket, 0, n)
		for range n {
			id := s.newCode(next)
			t := domain.Ticket{
				ID:       id,
				Code:     id,
				Category: category,
				IssuedAt: now,
			}
			next.add(t)
			issued = append(issued, t)
		}

		after(func(ctx context.Context) {
			for _, t := range issued {
				s.publish(ctx, domain.ChangeEvent{Type: domain.EventTicketIssued, TicketID: t.ID})
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tickets issued", "count", len(issued), "category", category)
	return issued, nil
}

func (s *Service) newCode(st *state) string {
	for {
		code := s.cfg.CodePrefix + uuid.NewString()
		if _, taken := st.tickets[code]; !taken {
			return code
		}
	}
}

// Activate attributes a ticket to companyName. Activation is one-shot:
// a second call fails whichever company makes it.
//
// Parameters:
//   - ctx: request-scoped context.
//   - code: scanned code; surrounding whitespace is ignored, case is not.
//   - companyName: company the ticket is attributed to.
//
// Returns:
//   - domain.Ticket: the activated ticket.
//   - error: ledger.ErrNotFound if no ticket has this code.
//   - error: *ledger.AlreadyActivatedError (matches ErrAlreadyActivated)
//     naming the first activator.
//   - error: ledger.ErrPersistence if the snapshot could not be saved.
func (s *Service) Activate(ctx context.Context, code, companyName string) (domain.Ticket, error) {
	const op = "service.ledger.Activate"

	code = normalizeCode(code)
	var activated domain.Ticket

	err := s.actor.Do(ctx, func(ctx context.Context, next *state, after func(uow.AfterCommit)) error {
		if strings.TrimSpace(companyName) == "" {
			return fmt.Errorf("%w: company name is required", ErrInvalidInput)
		}

		t, ok := next.tickets[code]
		if !ok {
			return ErrNotFound
		}

		if t.Activation != nil {
			return &AlreadyActivatedError{By: t.Activation.By, At: t.Activation.At}
		}

		now := s.clock.Now()
		t.Activation = &domain.Activation{By: companyName, At: now}
		next.tickets[code] = t
		next.activations = append(next.activations, domain.ActivationLogEntry{
			ID:          uuid.NewString(),
			TicketID:    t.ID,
			CompanyName: companyName,
			Timestamp:   now,
		})

		activated = t
		after(func(ctx context.Context) {
			s.publish(ctx, domain.ChangeEvent{
				Type:        domain.EventTicketActivated,
				TicketID:    t.ID,
				CompanyName: companyName,
			})
		})
		return nil
	})
	s.observe("activate", err)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Debug("ticket activated", "ticket_id", activated.ID, "company", companyName)
	return activated, nil
}

// Validate checks a ticket in at the gate. Every attempt on an existing
// ticket is appended to the validation log, rejections included.
//
// Parameters:
//   - ctx: request-scoped context.
//   - code: scanned code; surrounding whitespace is ignored.
//   - scannerLocation: optional free-form location of the scanner.
//
// Returns:
//   - domain.Ticket: the validated ticket with CheckInCount 1.
//   - error: ledger.ErrNotFound if no ticket has this code (not logged).
//   - error: ledger.ErrNotActivated if the ticket is still issued.
//   - error: *ledger.AlreadyValidatedError (matches ErrAlreadyValidated)
//     carrying the first check-in time.
//   - error: ledger.ErrPersistence if the snapshot could not be saved; the
//     attempt is then not logged either.
func (s *Service) Validate(ctx context.Context, code, scannerLocation string) (domain.Ticket, error) {
	const op = "service.ledger.Validate"

	code = normalizeCode(code)
	var (
		validated domain.Ticket
		rejection error
	)

	err := s.actor.Do(ctx, func(ctx context.Context, next *state, after func(uow.AfterCommit)) error {
		t, ok := next.tickets[code]
		if !ok {
			return ErrNotFound
		}

		now := s.clock.Now()
		entry := domain.ValidationLogEntry{
			ID:              uuid.NewString(),
			TicketID:        t.ID,
			Timestamp:       now,
			ScannerLocation: scannerLocation,
		}

		switch {
		case t.Activation == nil:
			entry.Outcome = domain.OutcomeInvalid
			rejection = ErrNotActivated
		case t.Validation != nil:
			entry.Outcome = domain.OutcomeDuplicate
			rejection = &AlreadyValidatedError{UsedAt: t.Validation.At}
		default:
			entry.Outcome = domain.OutcomeValid
			t.Validation = &domain.Validation{At: now, CheckInCount: 1}
			next.tickets[code] = t
			validated = t
		}

		next.validations = append(next.validations, entry)

		after(func(ctx context.Context) {
			s.publish(ctx, domain.ChangeEvent{
				Type:     domain.EventTicketValidated,
				TicketID: t.ID,
				Outcome:  entry.Outcome,
			})
		})
		return nil
	})
	if err == nil {
		err = rejection
	}
	s.observe("validate", err)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Debug("ticket validated", "ticket_id", validated.ID, "location", scannerLocation)
	return validated, nil
}

// Get looks a ticket up by code without changing it.
//
// Returns:
//   - error: ledger.ErrNotFound if no ticket has this code.
func (s *Service) Get(ctx context.Context, code string) (domain.Ticket, error) {
	const op = "service.ledger.Get"

	code = normalizeCode(code)
	var (
		t  domain.Ticket
		ok bool
	)

	if err := s.actor.View(ctx, func(st *state) {
		t, ok = st.tickets[code]
	}); err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return t, nil
}

// List returns every ticket in issue order.
func (s *Service) List(ctx context.Context) ([]domain.Ticket, error) {
	const op = "service.ledger.List"

	var out []domain.Ticket
	if err := s.actor.View(ctx, func(st *state) {
		out = st.list()
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Remove purges one ticket. The audit logs keep their entries for it.
//
// Returns:
//   - error: ledger.ErrNotFound if no ticket has this code.
//   - error: ledger.ErrPersistence if the snapshot could not be saved.
func (s *Service) Remove(ctx context.Context, code string) error {
	const op = "service.ledger.Remove"

	code = normalizeCode(code)

	err := s.actor.Do(ctx, func(ctx context.Context, next *state, after func(uow.AfterCommit)) error {
		t, ok := next.tickets[code]
		if !ok {
			return ErrNotFound
		}

		next.remove(func(candidate domain.Ticket) bool {
			return candidate.Code == code
		})

		after(func(ctx context.Context) {
			s.publish(ctx, domain.ChangeEvent{Type: domain.EventTicketRemoved, TicketID: t.ID})
		})
		return nil
	})
	s.observe("remove", err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("ticket removed", "ticket_id", code)
	return nil
}

// RemoveAllActivatedBy purges every ticket attributed to companyName,
// validated or not. No match is not an error and writes nothing.
//
// Returns:
//   - int: number of tickets removed.
//   - error: ledger.ErrPersistence if the snapshot could not be saved.
func (s *Service) RemoveAllActivatedBy(ctx context.Context, companyName string) (int, error) {
	const op = "service.ledger.RemoveAllActivatedBy"

	var removed int

	err := s.actor.Do(ctx, func(ctx context.Context, next *state, after func(uow.AfterCommit)) error {
		removed = next.remove(func(t domain.Ticket) bool {
			return t.Activation != nil && t.Activation.By == companyName
		})
		if removed == 0 {
			return uow.ErrNoChange
		}

		n := removed
		after(func(ctx context.Context) {
			s.publish(ctx, domain.ChangeEvent{
				Type:        domain.EventCompanyPurged,
				CompanyName: companyName,
				Count:       n,
			})
		})
		return nil
	})
	s.observe("remove_by_company", err)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if removed > 0 {
		s.logger.Info("company tickets removed", "company", companyName, "count", removed)
	}
	return removed, nil
}

// Snapshot returns a consistent copy of tickets and both logs.
func (s *Service) Snapshot(ctx context.Context) (domain.LedgerSnapshot, error) {
	const op = "service.ledger.Snapshot"

	var snap domain.LedgerSnapshot
	if err := s.actor.View(ctx, func(st *state) {
		snap = st.snapshot()
	}); err != nil {
		return domain.LedgerSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	return snap, nil
}

// ActivationLog returns a copy of the activation log, oldest first.
func (s *Service) ActivationLog(ctx context.Context) ([]domain.ActivationLogEntry, error) {
	const op = "service.ledger.ActivationLog"

	var out []domain.ActivationLogEntry
	if err := s.actor.View(ctx, func(st *state) {
		out = append(make([]domain.ActivationLogEntry, 0, len(st.activations)), st.activations...)
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ValidationLog returns a copy of the validation log, oldest first.
func (s *Service) ValidationLog(ctx context.Context) ([]domain.ValidationLogEntry, error) {
	const op = "service.ledger.ValidationLog"

	var out []domain.ValidationLogEntry
	if err := s.actor.View(ctx, func(st *state) {
		out = append(make([]domain.ValidationLogEntry, 0, len(st.validations)), st.validations...)
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) publish(ctx context.Context, ev domain.ChangeEvent) {
	if s.notifier == nil {
		return
	}

	ev.TsUnix = s.clock.Now().Unix()
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.logger.Warn("change event not published", "type", ev.Type, "error", err)
	}
}

func (s *Service) observe(operation string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, outcomeOf(err))
	}

	if err != nil && errors.Is(err, ErrPersistence) {
		s.logger.Error("ledger operation failed", "operation", operation, "error", err)
	}
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
