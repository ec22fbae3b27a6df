package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/internal/appconfig"
	"github.com/MrEthical07/goCred/store/memory"
	"github.com/MrEthical07/goCred/store/postgres"
)

// migrator is the subset of *postgres.Migrator the commands use.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

func defaultNewMigrator(databaseURL string) (migrator, error) {
	return postgres.NewMigrator(databaseURL)
}

// serveDeps holds injectable hooks for the serve command. Nil fields use
// their defaults.
type serveDeps struct {
	// NewMigrator is used for DB_AUTO_MIGRATE.
	NewMigrator func(databaseURL string) (migrator, error)
	// OnStarted is called with the bound addresses once both listeners are up.
	OnStarted func(apiAddr, metricsAddr string)
}

// runtime owns the engine and the backends behind it.
type runtime struct {
	engine  *goCred.Engine
	checks  []func(ctx context.Context) error
	closers []func()
}

// Ready pings every backend.
func (r *runtime) Ready(ctx context.Context) error {
	for _, check := range r.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the engine, then releases backends in reverse order.
func (r *runtime) Close() {
	if r.engine != nil {
		r.engine.Close()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func buildRuntime(ctx context.Context, cfg appconfig.Config, logger *slog.Logger, deps serveDeps) (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	var users goCred.CredentialStore
	switch cfg.Store.Backend {
	case appconfig.StorePostgres:
		if cfg.Store.AutoMigrate {
			newMigrator := deps.NewMigrator
			if newMigrator == nil {
				newMigrator = defaultNewMigrator
			}
			if err := autoMigrate(cfg.Store.DatabaseURL, newMigrator, logger); err != nil {
				return nil, err
			}
		}
		pg, err := postgres.Open(ctx, cfg.Store.DatabaseURL, postgres.WithSessionTTL(cfg.Auth.SessionTTL))
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
		}
		rt.closers = append(rt.closers, pg.Close)
		rt.checks = append(rt.checks, pg.Ping)
		if cfg.Auth.SessionTTL > 0 {
			rt.closers = append(rt.closers, startSessionSweeper(pg, cfg.Auth.SessionTTL, logger))
		}
		users = pg
	default:
		mem := memory.New(memory.WithSessionTTL(cfg.Auth.SessionTTL))
		rt.closers = append(rt.closers, mem.Close)
		users = mem
	}

	builder := goCred.New().
		WithConfig(cfg.EngineConfig()).
		WithUserStore(users).
		WithLogger(logger)

	if cfg.Store.SessionBackend == appconfig.SessionsFromRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, oops.Code("REDIS_UNAVAILABLE").With("addr", cfg.Redis.Addr).Wrap(err)
		}
		rt.checks = append(rt.checks, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		builder = builder.WithRedis(client)
	}

	if cfg.Auth.AuditLog {
		builder = builder.WithAuditSink(goCred.NewSlogSink(logger))
	}

	engine, err := builder.Build()
	if err != nil {
		return nil, oops.Code("ENGINE_BUILD_FAILED").Wrap(err)
	}
	rt.engine = engine

	return rt, nil
}

// startSessionSweeper runs the Postgres expired-session sweep in the
// background and returns the function that stops it.
func startSessionSweeper(pg *postgres.Store, ttl time.Duration, logger *slog.Logger) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pg.SweepExpiredSessions(ctx, min(ttl, time.Minute), logger)
	}()
	return func() {
		cancel()
		<-done
	}
}

func autoMigrate(databaseURL string, newMigrator func(string) (migrator, error), logger *slog.Logger) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "auto-migrate").Wrap(err)
	}
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("database schema ready", "version", v, "dirty", dirty)
	return nil
}
