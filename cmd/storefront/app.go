package main

import (
	"context"
	"fmt"
	"os"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/sokoide/workshop/storefront/pkg/config"
	"github.com/sokoide/workshop/storefront/pkg/domain"
	"github.com/sokoide/workshop/storefront/pkg/infra/console"
	"github.com/sokoide/workshop/storefront/pkg/infra/memory"
	"github.com/sokoide/workshop/storefront/pkg/infra/mockapi"
	"github.com/sokoide/workshop/storefront/pkg/infra/postgres"
	"github.com/sokoide/workshop/storefront/pkg/infra/rabbitmq"
	infraredis "github.com/sokoide/workshop/storefront/pkg/infra/redis"
	"github.com/sokoide/workshop/storefront/pkg/infra/sqlite"
	"github.com/sokoide/workshop/storefront/pkg/infra/util"
	"github.com/sokoide/workshop/storefront/pkg/logger"
	"github.com/sokoide/workshop/storefront/pkg/usecase"
)

// app holds every wired component for one CLI invocation.
type app struct {
	log      *logger.Logger
	console  *console.Notifier
	amqpCh   *amqp.Channel
	provider *mockapi.Provider

	catalog  *usecase.CatalogBrowser
	cart     *usecase.CartManager
	session  *usecase.SessionManager
	checkout *usecase.Checkout
	orders   *usecase.OrderHistory

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{log: log, console: console.NewNotifier(os.Stdout)}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	notifier := domain.Fanout{a.console}
	if cfg.AMQPURL != "" {
		conn, ch, err := rabbitmq.SetupConn(ctx, cfg.AMQPURL, cfg.AMQPRetry, log.WithComponent("rabbitmq").Logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, conn.Close, ch.Close)
		a.amqpCh = ch
		notifier = append(notifier, rabbitmq.NewNotifier(ch, log.WithComponent("rabbitmq").Logger))
	}

	a.provider, err = mockapi.NewProvider(ctx, mockapi.Config{
		Latency:   cfg.ProviderLatency,
		JWTSecret: cfg.JWTSecret,
		Store:     store,
		IDGen:     &util.UUIDGenerator{},
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []usecase.Option{
		usecase.WithProviderTimeout(cfg.ProviderTimeout),
		usecase.WithLogger(log.Logger),
	}
	if a.catalog, err = usecase.NewCatalogBrowser(a.provider, cfg.CatalogCacheTTL, opts...); err != nil {
		a.Close()
		return nil, err
	}
	if a.cart, err = usecase.NewCartManager(ctx, store, notifier, log.Logger); err != nil {
		a.Close()
		return nil, err
	}
	if a.session, err = usecase.NewSessionManager(ctx, store, a.provider, notifier, log.Logger, opts...); err != nil {
		a.Close()
		return nil, err
	}
	pricing := usecase.Pricing{DeliveryFee: cfg.DeliveryFee, TaxRate: cfg.TaxRate}
	if a.checkout, err = usecase.NewCheckout(a.cart, a.session, a.provider, notifier, pricing, opts...); err != nil {
		a.Close()
		return nil, err
	}
	if a.orders, err = usecase.NewOrderHistory(a.session, a.provider, opts...); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config) (domain.KeyValueStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.NewStore(), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)
		store := infraredis.NewRedisStore(client, cfg.RedisPrefix)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return store, nil

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		store := postgres.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		store, err := sqlite.Open(cfg.StoreDir, a.log.WithComponent("sqlite").Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.log.Debug("using sqlite store", "dir", cfg.StoreDir)
		return store, nil
	}
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
