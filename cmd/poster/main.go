package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/photogram-hq/photogram-poster/internal/app"
	"github.com/photogram-hq/photogram-poster/internal/config"
	"github.com/photogram-hq/photogram-poster/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "poster start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync(log)

	log.InfoObj("poster starting", "app", map[string]any{
		"name":               cfg.AppName,
		"env":                cfg.Env,
		"configure_accounts": cfg.ConfigureAccounts,
		"storage_type":       cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poster, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize poster", "error", err)
		return err
	}

	if err := poster.Run(ctx); err != nil {
		return fmt.Errorf("poster run: %w", err)
	}

	return nil
}
