package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS progress_slots (
    device_id  TEXT NOT NULL,
    slot       TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (device_id, slot)
)`

// Postgres stores slots in a progress_slots table, created on connect.
type Postgres struct {
	pool *pgxpool.Pool
}

// ParsePostgresURL validates a PostgreSQL connection URL.
func ParsePostgresURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("postgres URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres URL: %w", err)
	}
	return cfg, nil
}

// NewPostgres connects to url, pings it and ensures the table exists.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := ParsePostgresURL(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating progress table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, device string, slot engine.Slot) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM progress_slots WHERE device_id = $1 AND slot = $2`,
		device, string(slot),
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s: %w", device, slot, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, device string, slot engine.Slot, value string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO progress_slots (device_id, slot, value) VALUES ($1, $2, $3)
		 ON CONFLICT (device_id, slot) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		device, string(slot), value,
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", device, slot, err)
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context, device string, slot engine.Slot) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM progress_slots WHERE device_id = $1 AND slot = $2`,
		device, string(slot),
	)
	if err != nil {
		return fmt.Errorf("clear %s/%s: %w", device, slot, err)
	}
	return nil
}

func (p *Postgres) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
