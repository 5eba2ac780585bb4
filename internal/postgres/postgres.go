package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultConnectAttempts = 5
	connectBackoff         = 2 * time.Second
)

type Config struct {
	DSN      string
	MaxConns int32

	// ConnectAttempts bounds how often the first ping is retried while the
	// database is still starting. Zero means five.
	ConnectAttempts int
	Logger          *slog.Logger
}

// New opens a pool and waits until the database answers a ping.
func New(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	const op = "postgres.New"

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = min(2, poolCfg.MaxConns)
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		pool, err := connect(ctx, poolCfg)
		if err == nil {
			return pool, nil
		}

		if attempt == attempts {
			return nil, fmt.Errorf("%s: %d attempts: %w", op, attempts, err)
		}

		logger.Warn("postgres not ready",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s:%w", op, ctx.Err())
		case <-time.After(connectBackoff):
		}
	}
}

func connect(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
