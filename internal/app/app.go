package app

import (
	"context"
	"fmt"
	"time"

	"github.com/photogram-hq/photogram-poster/internal/caption"
	"github.com/photogram-hq/photogram-poster/internal/config"
	"github.com/photogram-hq/photogram-poster/internal/logger"
	"github.com/photogram-hq/photogram-poster/internal/poster"
	"github.com/photogram-hq/photogram-poster/internal/provisioner"
	"github.com/photogram-hq/photogram-poster/internal/storage"
	"github.com/photogram-hq/photogram-poster/pkg/httpclient"
	"github.com/photogram-hq/photogram-poster/pkg/instagram"
	"github.com/photogram-hq/photogram-poster/pkg/notify"
	"github.com/photogram-hq/photogram-poster/pkg/seeds"
	"github.com/photogram-hq/photogram-poster/pkg/unsplash"
)

// App wires the store, API clients, poster, and provisioner, and executes
// the selected operational mode.
type App struct {
	cfg          *config.Config
	store        storage.Store
	poster       *poster.Service
	provisioner  *provisioner.Service
	postInterval time.Duration
	log          logger.Logger
}

// New builds the application runtime from config.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.AccountsPath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.AccountsPath,
	})

	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	supplier := unsplash.NewClient(httpClient, cfg.UnsplashAPIBasePath, cfg.UnsplashAccessKey, cfg.UnsplashAPIVersion, log)
	graph := instagram.NewClient(httpClient, cfg.GraphAPIBasePath, cfg.GraphAPIVersion, cfg.GraphAPIAccessToken, log)

	fanout, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	defaults, err := loadSeeds(cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	var notifier poster.EventNotifier
	if fanout != nil {
		notifier = fanout
	}

	return &App{
		cfg:          cfg,
		store:        store,
		poster:       poster.NewService(store, supplier, graph, caption.NewBuilder(nil, log), notifier, log),
		provisioner:  provisioner.NewService(graph, store, defaults, log),
		postInterval: cfg.PostInterval,
		log:          log,
	}, nil
}

// Run executes the configured mode: account reconciliation, a single
// posting cycle, or a posting loop until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.poster == nil {
		return fmt.Errorf("app is not initialized")
	}
	defer a.closeStore()

	if a.cfg.ConfigureAccounts {
		a.log.InfoObj("running account reconciliation", "mode", "configure_accounts")
		return a.provisioner.Reconcile(ctx)
	}

	if a.postInterval <= 0 {
		return a.runCycle(ctx)
	}

	a.log.InfoObj("posting loop starting", "poster_state", map[string]any{
		"post_interval": a.postInterval.String(),
	})

	if err := a.runCycle(ctx); err != nil {
		a.log.ErrorObj("initial posting cycle failed", "error", err)
	}

	ticker := time.NewTicker(a.postInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.InfoObj("posting loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := a.runCycle(ctx); err != nil {
				a.log.ErrorObj("scheduled posting cycle failed", "error", err)
			}
		}
	}
}

// runCycle performs a single posting cycle across all accounts.
func (a *App) runCycle(ctx context.Context) error {
	start := time.Now()
	a.log.InfoObj("posting cycle started", "cycle_meta", map[string]any{
		"started_at": start.UTC(),
	})
	if err := a.poster.RunCycle(ctx); err != nil {
		return err
	}
	a.log.InfoObj("posting cycle completed", "cycle_meta", map[string]any{
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// buildNotifier constructs the post-event fanout when a sinks file is
// configured. No sinks file means no fanout; posting is unaffected.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Fanout, error) {
	if cfg.SinksFile == "" {
		return nil, nil
	}

	reg, err := notify.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}

	enabled := reg.Enabled()
	sinks, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	sinkSummaries := make([]map[string]string, 0, len(enabled))
	for _, sinkCfg := range enabled {
		sinkSummaries = append(sinkSummaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.InfoObj("notification sinks loaded", "sinks_meta", map[string]any{
		"count": len(sinkSummaries),
		"sinks": sinkSummaries,
	})
	return notify.NewFanout(sinks), nil
}

// loadSeeds reads the optional account defaults file.
func loadSeeds(cfg *config.Config, log logger.Logger) (*seeds.Defaults, error) {
	if cfg.SeedsFile == "" {
		return nil, nil
	}

	defaults, err := seeds.Load(cfg.SeedsFile)
	if err != nil {
		return nil, fmt.Errorf("load seeds: %w", err)
	}
	log.InfoObj("account seed defaults loaded", "seeds_meta", map[string]any{
		"captions_count": len(defaults.Captions),
		"hashtags_count": len(defaults.Hashtags),
		"collections":    defaults.Collections,
	})
	return defaults, nil
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (a *App) closeStore() {
	if a == nil || a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.ErrorObj("storage close failed", "error", err)
	}
}
