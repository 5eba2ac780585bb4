package service

import (
	"context"
	"log/slog"

	"github.com/kirinyoku/tix-events/internal/clock"
	postgres "github.com/kirinyoku/tix-events/internal/repository/postgres"
	redis "github.com/kirinyoku/tix-events/internal/repository/redis"
	"github.com/kirinyoku/tix-events/internal/service/importer"
	"github.com/kirinyoku/tix-events/internal/service/ledger"
	"github.com/kirinyoku/tix-events/internal/service/registry"
	"github.com/kirinyoku/tix-events/internal/service/report"
	"github.com/kirinyoku/tix-events/internal/uow"
)

type Services struct {
	Ledger   *ledger.Service
	Registry *registry.Service
	Importer *importer.Service
	Report   *report.Service
}

type Config struct {
	Ledger ledger.Config
}

// Publisher sends domain messages to the broker. A nil Publisher disables
// broker notifications.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg any) error
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.EventsPubSub,
	publisher Publisher,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Services {
	tx := uow.NewUoW(store)

	ledgerOpts := []ledger.Option{
		ledger.WithCache(cache),
		ledger.WithChangePublisher(pubsub),
		ledger.WithLogger(logger),
	}
	registryOpts := []registry.Option{
		registry.WithLogger(logger),
	}
	if publisher != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithBroker(publisher))
		registryOpts = append(registryOpts, registry.WithBroker(publisher))
	}

	l := ledger.New(store.Events(), tx, cfg.Ledger, ledgerOpts...)

	return &Services{
		Ledger:   l,
		Registry: registry.New(store.Attendees(), l, tx, registryOpts...),
		Importer: importer.New(l, logger),
		Report:   report.New(l, clk),
	}
}
