package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/bakery/internal/health"
	"github.com/vladislavdragonenkov/bakery/internal/storage/memory"
	"github.com/vladislavdragonenkov/bakery/internal/storage/postgres"
)

// runtimeDependencies — репозитории выбранного хранилища и его health-проверка.
type runtimeDependencies struct {
	cakes          domain.CakeRepository
	customers      domain.CustomerRepository
	orders         domain.OrderRepository
	outbox         domain.OutboxRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch driver {
	case "", StorageDriverMemory:
		logger.WithField("storage", StorageDriverMemory).Info("storage initialized")
		return &runtimeDependencies{
			cakes:     memory.NewCakeRepository(),
			customers: memory.NewCustomerRepository(),
			orders:    memory.NewOrderRepository(),
			outbox:    memory.NewOutboxRepository(),
			storageChecker: healthcheck.NewFuncChecker(StorageDriverMemory, func(context.Context) error {
				return nil
			}),
		}, nil
	case StorageDriverPostgres:
		return initPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q (use %s|%s)", cfg.StorageDriver, StorageDriverMemory, StorageDriverPostgres)
	}
}

func initPostgres(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	dsn := strings.TrimSpace(cfg.PostgresDSN)
	if dsn == "" {
		return nil, errors.New("postgres storage requires a DSN")
	}

	store, err := postgres.OpenWithPool(ctx, dsn, postgres.PoolOptions{
		MaxOpenConns:    cfg.PostgresMaxConns,
		MaxIdleConns:    cfg.PostgresMaxConns,
		ConnMaxLifetime: cfg.PostgresConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply postgres migrations: %w", err)
		}
		state, err := store.MigrationStatus(ctx)
		if err == nil {
			logger.WithFields(log.Fields{
				"schema_version": state.Version,
				"applied":        state.Applied,
			}).Info("postgres schema is up to date")
		}
	}

	logger.WithField("storage", StorageDriverPostgres).Info("storage initialized")
	return &runtimeDependencies{
		cakes:          postgres.NewCakeRepository(store),
		customers:      postgres.NewCustomerRepository(store),
		orders:         postgres.NewOrderRepository(store),
		outbox:         postgres.NewOutboxRepository(store),
		storageChecker: healthcheck.NewFuncChecker(StorageDriverPostgres, store.Ping),
		closeFn:        store.Close,
	}, nil
}
