// Package app wires the ledger's adapters and use cases together for the
// server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/casacambio/cashledger/internal/adapter/http"
	"github.com/casacambio/cashledger/internal/adapter/http/handler"
	postgresRepo "github.com/casacambio/cashledger/internal/adapter/repository/postgres"
	redisRepo "github.com/casacambio/cashledger/internal/adapter/repository/redis"
	"github.com/casacambio/cashledger/internal/infrastructure/config"
	"github.com/casacambio/cashledger/internal/infrastructure/eventpublisher"
	"github.com/casacambio/cashledger/internal/infrastructure/metrics"
	"github.com/casacambio/cashledger/internal/infrastructure/postgres"
	"github.com/casacambio/cashledger/internal/infrastructure/redis"
	"github.com/casacambio/cashledger/internal/infrastructure/scheduler"
	"github.com/casacambio/cashledger/internal/usecase"
)

// Options tune how the application is assembled.
type Options struct {
	// NoEvents drops outbox events instead of storing them.
	NoEvents bool
}

// App holds the connections and use cases of one process.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Redis   *goredis.Client // nil when REDIS_ENABLED=false
	Metrics *metrics.Metrics

	registry   *prometheus.Registry
	outboxRepo usecase.OutboxRepository

	Registry       *usecase.RegistryUseCase
	Posting        *usecase.PostingUseCase
	Balances       *usecase.BalanceUseCase
	Openings       *usecase.OpeningBalanceUseCase
	Audit          *usecase.AuditUseCase
	Reconciliation *usecase.ReconciliationUseCase
	Transfers      *usecase.TransferUseCase
}

// New connects to PostgreSQL and, when enabled, Redis, and builds every use case.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Pool:     pool,
		registry: prometheus.NewRegistry(),
	}

	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, PingTimeout: cfg.RedisPingTimeout})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.Redis = client
		logger.Info().Msg("connected to redis")
	}

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.registry)

	a.build(opts)

	return a, nil
}

func (a *App) build(opts Options) {
	pool := a.Pool

	txManager := postgresRepo.NewTxManager(pool, a.Config.LockTimeout)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	currencyRepo := postgresRepo.NewCurrencyRepository(pool)
	snapshotRepo := postgresRepo.NewSnapshotRepository(pool)
	movementRepo := postgresRepo.NewMovementRepository(pool)
	openingRepo := postgresRepo.NewOpeningBalanceRepository(pool)
	retrier := postgresRepo.NewRetrier(a.Logger)
	idGen := postgresRepo.NewULIDGenerator()

	a.outboxRepo = postgresRepo.NewOutboxRepository(pool)
	if opts.NoEvents {
		a.outboxRepo = postgresRepo.NewNullOutboxRepository()
	}

	// Left as untyped nil interfaces when Redis is off; the use cases check for nil.
	var (
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
	)
	if a.Redis != nil {
		cache = redisRepo.NewCache(a.Redis)
		idempotency = redisRepo.NewIdempotencyStore(a.Redis)
	}

	a.Registry = usecase.NewRegistryUseCase(accountRepo, currencyRepo, idGen)

	a.Posting = usecase.NewPostingUseCase(usecase.PostingConfig{
		Registry:       a.Registry,
		TxManager:      txManager,
		SnapshotRepo:   snapshotRepo,
		MovementRepo:   movementRepo,
		OutboxRepo:     a.outboxRepo,
		IDGen:          idGen,
		Retrier:        retrier,
		Idempotency:    idempotency,
		Cache:          cache,
		IdempotencyTTL: a.Config.IdempotencyTTL,
		Metrics:        a.Metrics,
		Logger:         a.Logger,
	})

	a.Balances = usecase.NewBalanceUseCase(a.Registry, snapshotRepo, movementRepo, cache, a.Logger).
		WithCacheTTL(a.Config.BalanceCacheTTL)

	a.Openings = usecase.NewOpeningBalanceUseCase(usecase.OpeningBalanceConfig{
		Registry:     a.Registry,
		TxManager:    txManager,
		SnapshotRepo: snapshotRepo,
		MovementRepo: movementRepo,
		OpeningRepo:  openingRepo,
		OutboxRepo:   a.outboxRepo,
		IDGen:        idGen,
		Retrier:      retrier,
		Cache:        cache,
		Logger:       a.Logger,
	})

	a.Audit = usecase.NewAuditUseCase(a.Registry, txManager, snapshotRepo, movementRepo, openingRepo, a.Metrics, a.Logger)

	a.Reconciliation = usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
		Registry:     a.Registry,
		TxManager:    txManager,
		SnapshotRepo: snapshotRepo,
		MovementRepo: movementRepo,
		OpeningRepo:  openingRepo,
		OutboxRepo:   a.outboxRepo,
		IDGen:        idGen,
		Retrier:      retrier,
		Cache:        cache,
		Metrics:      a.Metrics,
		Logger:       a.Logger,
	})

	a.Transfers = usecase.NewTransferUseCase(a.Posting, txManager, movementRepo, a.outboxRepo, idGen, a.Logger)
}

// Router builds the HTTP handler serving the ops API and /metrics.
func (a *App) Router() http.Handler {
	var redisPinger handler.Pinger
	if a.Redis != nil {
		client := a.Redis
		redisPinger = handler.PingerFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
	}

	return httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:                a.Logger,
		Metrics:               a.Metrics,
		MetricsHandler:        promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}),
		HealthHandler:         handler.NewHealthHandler(a.Pool, redisPinger),
		AccountHandler:        handler.NewAccountHandler(a.Registry),
		BalanceHandler:        handler.NewBalanceHandler(a.Balances),
		MovementHandler:       handler.NewMovementHandler(a.Posting),
		TransferHandler:       handler.NewTransferHandler(a.Transfers),
		OpeningBalanceHandler: handler.NewOpeningBalanceHandler(a.Openings),
		AuditHandler:          handler.NewAuditHandler(a.Audit),
		ReconciliationHandler: handler.NewReconciliationHandler(a.Reconciliation),
	})
}

// EventPublisher builds the outbox worker. Events go to RabbitMQ when
// AMQP_URL is set and to the log otherwise. The returned func releases the
// broker connection.
func (a *App) EventPublisher() (*eventpublisher.EventPublisher, func(), error) {
	publisher, closeFn, err := newPublisher(a.Config, a.Logger)
	if err != nil {
		return nil, nil, err
	}

	return eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: a.outboxRepo,
		Publisher:  publisher,
		Observer:   a.Metrics,
		Logger:     a.Logger,
		BatchSize:  a.Config.OutboxBatchSize,
		Interval:   a.Config.OutboxInterval,
		Retention:  a.Config.OutboxRetention,
	}), closeFn, nil
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return eventpublisher.NewLogPublisher(logger), func() {}, nil
	}

	p, err := eventpublisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		return nil, nil, err
	}

	return p, p.Close, nil
}

// Scheduler builds the reconciliation sweep scheduler from SWEEP_* settings.
func (a *App) Scheduler(dryRun bool) *scheduler.Scheduler {
	return scheduler.New(a.Reconciliation, a.Logger, scheduler.Config{
		Schedule: a.Config.SweepSchedule,
		Actor:    a.Config.SweepActor,
		DryRun:   dryRun || a.Config.SweepDryRun,
	})
}

// Close releases connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	a.Pool.Close()
}
