// Package cli wires configuration into a running loanflow engine for the
// command line: stores, registry, submission outbox, metrics and the chat
// runner.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/loanflow"
	"github.com/aretw0/loanflow/internal/adapters/file"
	"github.com/aretw0/loanflow/internal/config"
	"github.com/aretw0/loanflow/pkg/adapters/abr"
	"github.com/aretw0/loanflow/pkg/adapters/memory"
	"github.com/aretw0/loanflow/pkg/adapters/postgres"
	"github.com/aretw0/loanflow/pkg/adapters/redis"
	"github.com/aretw0/loanflow/pkg/observability"
	"github.com/aretw0/loanflow/pkg/persistence/middleware"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/quote"
)

// App is a fully wired engine and the resources it holds.
type App struct {
	Engine     *loanflow.Engine
	Store      ports.SnapshotStore
	Registry   ports.Registry
	Calculator *quote.Calculator
	Metrics    *observability.Metrics
	Logger     *slog.Logger

	closers []func() error
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

type buildOptions struct {
	emitter loanflow.Emitter
	metrics bool
	pacing  *time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// BuildOption adjusts Build.
type BuildOption func(*buildOptions)

// WithEmitter streams messages through em.
func WithEmitter(em loanflow.Emitter) BuildOption {
	return func(o *buildOptions) { o.emitter = em }
}

// WithMetrics registers prometheus metrics as lifecycle hooks.
func WithMetrics() BuildOption {
	return func(o *buildOptions) { o.metrics = true }
}

// WithPacing overrides pacing.delay.
func WithPacing(d time.Duration) BuildOption {
	return func(o *buildOptions) { o.pacing = &d }
}

// WithClock fixes the engine clock.
func WithClock(now func() time.Time) BuildOption {
	return func(o *buildOptions) { o.now = now }
}

// WithLogger overrides the logger derived from log.level.
func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

// Build opens every adapter cfg names and returns the engine on top of them.
// Callers must Close the App.
func Build(ctx context.Context, cfg *config.Config, opts ...BuildOption) (*App, error) {
	o := &buildOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = cfg.Logger()
	}
	app := &App{Logger: logger}

	store, locker, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.closers = append(app.closers, closeStore)

	rates, err := cfg.Rates.Table()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Calculator = quote.New(quote.WithRates(rates))
	app.Registry = newRegistry(cfg, logger, o.now)

	engineOpts := []loanflow.Option{
		loanflow.WithStore(store),
		loanflow.WithRegistry(app.Registry),
		loanflow.WithCalculator(app.Calculator),
		loanflow.WithLogger(logger),
		loanflow.WithClock(o.now),
	}
	if locker != nil {
		engineOpts = append(engineOpts, loanflow.WithLocker(locker))
	}

	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
		outbox, err := migrate(ctx, db)
		if err != nil {
			app.Close()
			return nil, err
		}
		engineOpts = append(engineOpts, loanflow.WithSubmitter(outbox), loanflow.WithLeadSink(outbox))
	}

	delay := cfg.Pacing.Delay
	if o.pacing != nil {
		delay = *o.pacing
	}
	engineOpts = append(engineOpts, loanflow.WithPacing(delay))
	if o.emitter != nil {
		engineOpts = append(engineOpts, loanflow.WithEmitter(o.emitter))
	}

	hooks := observability.LogHooks(logger)
	if o.metrics {
		app.Metrics = observability.NewMetrics(prometheus.NewRegistry())
		hooks = observability.Combine(hooks, app.Metrics.Hooks())
	}
	engineOpts = append(engineOpts, loanflow.WithLifecycleHooks(hooks))

	app.Engine, err = loanflow.New(engineOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func migrate(ctx context.Context, db *sql.DB) (*postgres.Outbox, error) {
	outbox := postgres.New(db)
	if err := outbox.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return outbox, nil
}

// NewRegistry returns the registry client cfg names, or the fixture registry
// when no GUID is configured.
func NewRegistry(cfg *config.Config, logger *slog.Logger) ports.Registry {
	return newRegistry(cfg, logger, time.Now)
}

func newRegistry(cfg *config.Config, logger *slog.Logger, now func() time.Time) ports.Registry {
	if cfg.Registry.GUID == "" {
		logger.Debug("Using the fixture business registry")
		return memory.Fixture(now())
	}
	opts := []abr.Option{abr.WithTimeout(cfg.Registry.Timeout), abr.WithLogger(logger)}
	if cfg.Registry.URL != "" {
		opts = append(opts, abr.WithBaseURL(cfg.Registry.URL))
	}
	return abr.New(cfg.Registry.GUID, opts...)
}

// OpenStore opens the snapshot store cfg names, sealed when an encryption key
// is configured. The returned func closes any connection.
func OpenStore(cfg *config.Config, logger *slog.Logger) (ports.SnapshotStore, func() error, error) {
	store, _, closeStore, err := openStore(cfg, logger)
	return store, closeStore, err
}

func openStore(cfg *config.Config, logger *slog.Logger) (ports.SnapshotStore, ports.DistributedLocker, func() error, error) {
	var (
		store  ports.SnapshotStore
		locker ports.DistributedLocker
	)
	closeStore := func() error { return nil }

	switch cfg.Store.Kind {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Store.Path)
	case config.StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.TTL))
		locker = redis.NewLocker(client, cfg.Redis.Prefix)
		closeStore = client.Close
	default:
		return nil, nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
	logger.Debug("Snapshot store ready", "kind", cfg.Store.Kind)

	if cfg.Encryption.Enabled() {
		mw, err := cfg.Encryption.Middleware()
		if err != nil {
			closeStore()
			return nil, nil, nil, err
		}
		store = middleware.Chain(store, mw)
	}
	return store, locker, closeStore, nil
}
