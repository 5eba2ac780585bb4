package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-events/internal/broker"
	"github.com/kirinyoku/tix-events/internal/clock"
	"github.com/kirinyoku/tix-events/internal/config"
	"github.com/kirinyoku/tix-events/internal/postgres"
	"github.com/kirinyoku/tix-events/internal/redis"
	postgresrepo "github.com/kirinyoku/tix-events/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-events/internal/repository/redis"
	"github.com/kirinyoku/tix-events/internal/service"
	"github.com/kirinyoku/tix-events/internal/service/ledger"
	httpgin "github.com/kirinyoku/tix-events/internal/transport/http/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	pool   *pgxpool.Pool
	rdb    *goredis.Client
	cache  *redisrepo.Cache
	pubsub *redisrepo.EventsPubSub
	broker *broker.Broker
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pgxPool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if err := postgres.Migrate(ctx, pgxPool); err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	var (
		msgBroker *broker.Broker
		publisher service.Publisher
	)
	if cfg.RabbitMQ.URL != "" {
		msgBroker, err = broker.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			_ = rdb.Close()
			pgxPool.Close()
			return nil, fmt.Errorf("failed to initialize broker: %w", err)
		}
		publisher = msgBroker
	} else {
		logger.Info("RABBITMQ_URL not set, broker notifications disabled")
	}

	// Repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewEventsPubSub(rdb)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 24*time.Hour)

	var limiter httpgin.RateLimiter
	if cfg.HTTP.RateLimitPerMinute > 0 {
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "tickets", cfg.HTTP.RateLimitPerMinute, time.Minute)
	}

	// Services
	services := service.NewServices(store, cache, pubsub, publisher, clock.NewSystem(), logger, service.Config{
		Ledger: ledger.Config{EventCacheTTL: cfg.Cache.EventTTL},
	})

	router := httpgin.NewRouter(services, httpgin.Options{
		Idempotency:    idempotencyStore,
		Limiter:        limiter,
		AllowOrigins:   cfg.HTTP.AllowOrigins,
		ImportMaxBytes: cfg.HTTP.ImportMaxBytes,
	}, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		pool:   pgxPool,
		rdb:    rdb,
		cache:  cache,
		pubsub: pubsub,
		broker: msgBroker,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	// Drop cached events changed by any writer
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, ch redisrepo.EventChange) {
			a.logger.Debug("event changed", "event_id", ch.EventID, "kind", ch.Kind)
			if err := a.cache.InvalidateEvent(ctx, ch.EventID); err != nil {
				a.logger.Warn("invalidate event cache", "event_id", ch.EventID, "error", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event change subscriber: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) close() {
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Warn("close broker", "error", err)
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("close redis", "error", err)
	}

	a.pool.Close()
}
