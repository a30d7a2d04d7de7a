package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	_ "github.com/kirinyoku/tix-gate/docs"
	"github.com/kirinyoku/tix-gate/internal/app"
	"github.com/kirinyoku/tix-gate/internal/config"
)

// @title TixGate API
// @version 1.0
// @description Ticket issuing, activation and gate validation.
// @host localhost:8080
// @BasePath /
func main() {
	envFile := pflag.String("env-file", ".env", "path to an optional .env file")
	storeDriver := pflag.String("store", "", "override STORE_DRIVER (memory, sqlite, postgres, redis)")
	pflag.Parse()

	bootLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New(*envFile)
	if err != nil {
		bootLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *storeDriver != "" {
		cfg.Store.Driver = *storeDriver
		if err := cfg.Validate(); err != nil {
			bootLogger.Error("invalid --store", "error", err)
			os.Exit(1)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
