package registry

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-gate/internal/clock"
	"github.com/kirinyoku/tix-gate/internal/domain"
	"github.com/kirinyoku/tix-gate/internal/uow"
)

type Persister interface {
	LoadRegistry(ctx context.Context) (*domain.RegistrySnapshot, error)
	SaveRegistry(ctx context.Context, snap domain.RegistrySnapshot) error
}

type Config struct {
	QueueSize     int
	CommitTimeout time.Duration
	Clock         clock.Clock
}

// registryState keeps companies in registration order. The registry is
// small, so lookups scan.
type registryState struct {
	companies []domain.Company
}

func (st *registryState) Clone() *registryState {
	return &registryState{companies: slices.Clone(st.companies)}
}

func (st *registryState) index(id string) int {
	return slices.IndexFunc(st.companies, func(c domain.Company) bool { return c.ID == id })
}

type Service struct {
	actor  *uow.Actor[*registryState]
	store  Persister
	clock  clock.Clock
	logger *slog.Logger
}

// New starts the registry and loads its snapshot in the background.
func New(ctx context.Context, store Persister, logger *slog.Logger, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Service{
		store:  store,
		clock:  cfg.Clock,
		logger: logger.With("component", "registry"),
	}

	s.actor = uow.Start(ctx, uow.Config{
		Name:          "registry",
		Logger:        logger,
		QueueSize:     cfg.QueueSize,
		CommitTimeout: cfg.CommitTimeout,
	}, s.load, s.commit)

	return s
}

func (s *Service) load(ctx context.Context) (*registryState, error) {
	snap, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if snap == nil {
		return &registryState{}, nil
	}

	if snap.Version > domain.SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported registry snapshot version %d", ErrPersistence, snap.Version)
	}

	return &registryState{companies: slices.Clone(snap.Companies)}, nil
}

func (s *Service) commit(ctx context.Context, next *registryState) error {
	err := s.store.SaveRegistry(ctx, domain.RegistrySnapshot{
		Version:   domain.SnapshotVersion,
		Companies: append(make([]domain.Company, 0, len(next.companies)), next.companies...),
	})
	if err != nil {
		s.logger.Error("registry snapshot not saved, mutation discarded", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return nil
}

func (s *Service) WaitReady(ctx context.Context) error {
	return s.actor.WaitReady(ctx)
}

func (s *Service) Close() {
	s.actor.Close()
}

// Register adds an active company with a fresh API key.
//
// Returns:
//   - domain.Company: the created record, key included.
//   - error: registry.ErrInvalidInput if name is blank.
//   - error: registry.ErrPersistence if the snapshot could not be saved.
func (s *Service) Register(ctx context.Context, name string) (domain.Company, error) {
	const op = "service.registry.Register"

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Company{}, fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}

	key, err := newAPIKey()
	if err != nil {
		return domain.Company{}, fmt.Errorf("%s: generate key: %w", op, err)
	}

	company := domain.Company{
		ID:        uuid.NewString(),
		Name:      name,
		APIKey:    key,
		CreatedAt: s.clock.Now(),
		Active:    true,
	}

	err = s.actor.Do(ctx, func(ctx context.Context, next *registryState, after func(uow.AfterCommit)) error {
		next.companies = append(next.companies, company)
		return nil
	})
	if err != nil {
		return domain.Company{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("company registered", "company_id", company.ID, "name", name)
	return company, nil
}

// RegenerateKey replaces a company's key. The old key stops authorizing
// as soon as this returns.
//
// Returns:
//   - error: registry.ErrNotFound if id is unknown.
func (s *Service) RegenerateKey(ctx context.Context, id string) (domain.Company, error) {
	const op = "service.registry.RegenerateKey"

	key, err := newAPIKey()
	if err != nil {
		return domain.Company{}, fmt.Errorf("%s: generate key: %w", op, err)
	}

	company, err := s.update(ctx, id, func(c *domain.Company) { c.APIKey = key })
	if err != nil {
		return domain.Company{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("company key regenerated", "company_id", id)
	return company, nil
}

// SetActive enables or disables a company without touching its key.
//
// Returns:
//   - error: registry.ErrNotFound if id is unknown.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (domain.Company, error) {
	const op = "service.registry.SetActive"

	company, err := s.update(ctx, id, func(c *domain.Company) { c.Active = active })
	if err != nil {
		return domain.Company{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("company activity changed", "company_id", id, "active", active)
	return company, nil
}

// Delete removes a company. Tickets it activated are left alone.
//
// Returns:
//   - error: registry.ErrNotFound if id is unknown.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "service.registry.Delete"

	err := s.actor.Do(ctx, func(ctx context.Context, next *registryState, after func(uow.AfterCommit)) error {
		i := next.index(id)
		if i < 0 {
			return ErrNotFound
		}
		next.companies = slices.Delete(next.companies, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("company deleted", "company_id", id)
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Company, error) {
	const op = "service.registry.List"

	var out []domain.Company
	if err := s.actor.View(ctx, func(st *registryState) {
		out = append(make([]domain.Company, 0, len(st.companies)), st.companies...)
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Company, error) {
	const op = "service.registry.Get"

	var (
		company domain.Company
		found   bool
	)
	if err := s.actor.View(ctx, func(st *registryState) {
		if i := st.index(id); i >= 0 {
			company, found = st.companies[i], true
		}
	}); err != nil {
		return domain.Company{}, fmt.Errorf("%s: %w", op, err)
	}

	if !found {
		return domain.Company{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return company, nil
}

// Authorize reports whether an active company named name holds apiKey.
// Names are not unique; any active record with a matching key passes.
func (s *Service) Authorize(ctx context.Context, name, apiKey string) (bool, error) {
	const op = "service.registry.Authorize"

	if name == "" || apiKey == "" {
		return false, nil
	}

	var ok bool
	if err := s.actor.View(ctx, func(st *registryState) {
		for _, co := range st.companies {
			if !co.Active || co.Name != name {
				continue
			}
			if subtle.ConstantTimeCompare([]byte(co.APIKey), []byte(apiKey)) == 1 {
				ok = true
			}
		}
	}); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

func (s *Service) update(ctx context.Context, id string, fn func(*domain.Company)) (domain.Company, error) {
	var updated domain.Company

	err := s.actor.Do(ctx, func(ctx context.Context, next *registryState, after func(uow.AfterCommit)) error {
		i := next.index(id)
		if i < 0 {
			return ErrNotFound
		}
		fn(&next.companies[i])
		updated = next.companies[i]
		return nil
	})

	return updated, err
}
