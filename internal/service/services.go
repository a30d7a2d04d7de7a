package service

import (
	"context"
	"log/slog"

	"github.com/kirinyoku/tix-gate/internal/repository"
	"github.com/kirinyoku/tix-gate/internal/service/ledger"
	"github.com/kirinyoku/tix-gate/internal/service/registry"
	"github.com/kirinyoku/tix-gate/internal/service/report"
)

type Services struct {
	Ledger   *ledger.Service
	Registry *registry.Service
	Report   *report.Service
}

type Config struct {
	Ledger   ledger.Config
	Registry registry.Config
}

// NewServices starts the ledger and registry actors over store. Both begin
// loading in the background; use WaitReady before serving traffic.
func NewServices(
	ctx context.Context,
	store *repository.SnapshotStore,
	notifier ledger.Notifier,
	metrics ledger.Recorder,
	logger *slog.Logger,
	cfg Config,
) *Services {
	l := ledger.New(ctx, store, notifier, metrics, logger, cfg.Ledger)

	return &Services{
		Ledger:   l,
		Registry: registry.New(ctx, store, logger, cfg.Registry),
		Report:   report.New(l),
	}
}

// WaitReady returns the first load error of either component.
func (s *Services) WaitReady(ctx context.Context) error {
	if err := s.Ledger.WaitReady(ctx); err != nil {
		return err
	}
	return s.Registry.WaitReady(ctx)
}

func (s *Services) Close() {
	s.Ledger.Close()
	s.Registry.Close()
}
