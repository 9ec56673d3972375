package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/config"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/database"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/handler/health"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/migrations"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/progress"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Progress ---
	backend, closeBackend, err := openProgress(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("opening %s progress backend: %w", cfg.ProgressBackend, err)
	}
	defer closeBackend()
	logger.Info("progress backend ready", "backend", cfg.ProgressBackend)

	// --- Route ---
	routes := server.NewRouteStore(db)
	if err := server.SeedRoute(ctx, logger, routes, cfg.RoutePath); err != nil {
		logger.Error("seeding route", "path", cfg.RoutePath, "error", err)
	}

	broker := server.NewBroker()
	registry := server.NewRegistry(backend, broker, logger, cfg.Season, cfg.ScanDebounce)
	defer registry.Close()

	// Without a usable route the server still starts so the route can be
	// imported through the admin API.
	if err := server.LoadStored(ctx, routes, registry); err != nil {
		logger.Error("no active route", "error", err)
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Registry: registry,
		Routes:   routes,
		Broker:   broker,
		Progress: backend,
		Checks: map[string]health.Checker{
			"sqlite":   dbChecker{db},
			"progress": backend,
		},
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: cfg.AdminPasswordHash,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// openProgress returns the configured backend and a function releasing it.
func openProgress(ctx context.Context, cfg *config.Config, db *sql.DB) (progress.Backend, func(), error) {
	switch cfg.ProgressBackend {
	case config.BackendRedis:
		r, err := progress.NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	case config.BackendPostgres:
		p, err := progress.NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case config.BackendMemory:
		return progress.NewMemory(), func() {}, nil
	}
	return progress.NewSQLite(db), func() {}, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }
