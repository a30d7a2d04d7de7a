package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/tix-gate/internal/codec"
	"github.com/kirinyoku/tix-gate/internal/config"
	"github.com/kirinyoku/tix-gate/internal/domain"
	"github.com/kirinyoku/tix-gate/internal/metrics"
	"github.com/kirinyoku/tix-gate/internal/postgres"
	redisx "github.com/kirinyoku/tix-gate/internal/redis"
	"github.com/kirinyoku/tix-gate/internal/repository"
	"github.com/kirinyoku/tix-gate/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/tix-gate/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-gate/internal/repository/redis"
	"github.com/kirinyoku/tix-gate/internal/repository/sqlite"
	"github.com/kirinyoku/tix-gate/internal/service"
	"github.com/kirinyoku/tix-gate/internal/service/ledger"
	"github.com/kirinyoku/tix-gate/internal/service/registry"
	httpgin "github.com/kirinyoku/tix-gate/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	services   *service.Services
	pubsub     *redisrepo.EventsPubSub
	hub        *httpgin.EventHub
	httpServer *http.Server
	closers    []io.Closer
}

// New connects the configured store and optional redis, then starts the
// ledger and registry. It returns once both finished loading.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	redisCfg := redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	var rdb *goredis.Client
	if redisCfg.Enabled() {
		var err error
		rdb, err = redisx.New(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, rdb)
	}

	blobs, err := a.openBlobStore(ctx, rdb)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	snapshotCodec, err := codec.ByName(cfg.Store.Codec)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	store := repository.NewSnapshotStore(blobs, snapshotCodec)
	m := metrics.New()

	deps := httpgin.Deps{
		AdminPassword: cfg.Server.AdminPassword,
		Metrics:       m,
	}

	var notifier ledger.Notifier
	if rdb != nil {
		a.pubsub = redisrepo.NewEventsPubSub(rdb)
		a.hub = httpgin.NewEventHub()
		notifier = a.pubsub

		deps.Events = a.hub
		deps.Idempotency = redisrepo.NewIdempotencyStore(rdb, cfg.Server.IdempotencyTTL)
		if cfg.Server.RateLimitPerMinute > 0 {
			deps.Limiter = redisrepo.NewSlidingWindowLimiter(rdb, "scan", cfg.Server.RateLimitPerMinute, time.Minute, nil)
		}
	}

	a.services = service.NewServices(ctx, store, notifier, m, logger, service.Config{
		Ledger: ledger.Config{
			CodePrefix:    cfg.Ledger.CodePrefix,
			CommitTimeout: cfg.Store.Timeout,
		},
		Registry: registry.Config{
			CommitTimeout: cfg.Store.Timeout,
		},
	})

	if err := a.services.WaitReady(ctx); err != nil {
		a.services.Close()
		a.closeAll()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	deps.Services = a.services

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           httpgin.NewRouter(deps, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("application initialized",
		"store", cfg.Store.Driver,
		"codec", snapshotCodec.Name(),
		"redis", rdb != nil,
	)

	return a, nil
}

func (a *App) openBlobStore(ctx context.Context, rdb *goredis.Client) (repository.BlobStore, error) {
	cfg := a.cfg

	switch cfg.Store.Driver {
	case config.DriverMemory:
		a.logger.Warn("memory store selected, state is lost on exit")
		return memory.New(), nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil

	case config.DriverPostgres:
		pool, err := postgres.New(ctx, postgres.Config{
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Name:     cfg.Postgres.Name,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, closerFunc(func() error {
			pool.Close()
			return nil
		}))

		s := postgresrepo.NewStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize postgres schema: %w", err)
		}
		return s, nil

	case config.DriverRedis:
		if rdb == nil {
			return nil, errors.New("redis store driver requires REDIS_ADDR")
		}
		return redisrepo.NewStore(rdb), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.closeAll()
	defer a.services.Close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Fan redis change events out to SSE clients
	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, nil, func(ctx context.Context, ev domain.ChangeEvent) {
				a.hub.Broadcast(ctx, ev)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("change event subscription ended", "error", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
