package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/kiwi/internal/airtable"
	"github.com/five82/kiwi/internal/config"
	"github.com/five82/kiwi/internal/coordinator"
	"github.com/five82/kiwi/internal/logging"
	"github.com/five82/kiwi/internal/prefs"
	"github.com/five82/kiwi/internal/state"
	"github.com/five82/kiwi/internal/ui"
)

// Version is reported in the user agent and by kiwi --version.
var Version = "dev"

// Options configure the kiwi application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/kiwi/prefs.toml
	Debug      bool
}

// Env holds the wired components shared by the TUI and the CLI commands.
type Env struct {
	Config      config.Config
	Logger      *zap.Logger
	Store       *state.Store
	Coordinator *coordinator.Coordinator
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = logging.Sync(e.Logger)
}

// Bootstrap loads and validates configuration, opens the log file and wires
// the store client, state store and coordinator.
func Bootstrap(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := airtable.NewClient(airtable.Config{
		BaseURL:   cfg.BaseURL,
		BaseID:    cfg.BaseID,
		Table:     cfg.Table,
		Token:     cfg.Token,
		UserAgent: "kiwi/" + Version,
		Logger:    logger,
	})
	if err != nil {
		_ = logging.Sync(logger)
		return nil, fmt.Errorf("init store client: %w", err)
	}

	store := state.NewStore()
	coord := coordinator.New(client, store, coordinator.Options{
		OptimisticAdd: cfg.OptimisticAdd,
		PageSize:      cfg.PageSize,
	}, logger)

	logger.Debug("bootstrapped",
		zap.String("base_url", cfg.BaseURL),
		zap.String("table", cfg.Table),
		zap.Bool("optimistic_add", cfg.OptimisticAdd),
	)
	return &Env{Config: cfg, Logger: logger, Store: store, Coordinator: coord}, nil
}

// Run boots the kiwi TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Bootstrap(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		env.Logger.Warn("load prefs failed, using defaults", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if env.Config.RefreshEvery > 0 {
		StartPoller(ctx, env.Coordinator, env.Store, env.Config.RefreshEvery, env.Logger)
	}

	env.Logger.Info("starting tui", zap.String("version", Version))
	err = ui.Run(ui.Options{
		Context:        ctx,
		Sync:           env.Coordinator,
		Logger:         env.Logger,
		Prefs:          userPrefs,
		PrefsPath:      opts.PrefsPath,
		PerPage:        env.Config.PerPage,
		SearchDebounce: env.Config.SearchDebounce,
	})
	env.Logger.Info("tui exited", zap.Error(err))
	return err
}

// Fetch loads the list once for query, bounded by timeout.
func (e *Env) Fetch(ctx context.Context, query coordinator.Query, timeout time.Duration) (state.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := e.Coordinator.Fetch(ctx, query); err != nil {
		return state.Snapshot{}, err
	}
	return e.Store.Snapshot(), nil
}
