package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/bakery/internal/health"
)

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{StorageDriverMemory, "", " Memory "} {
		deps, err := initRuntimeDependencies(context.Background(), Config{
			StorageDriver: driver,
		}, log.WithField("test", "memory-storage"))
		if err != nil {
			t.Fatalf("initRuntimeDependencies(%q) failed: %v", driver, err)
		}
		if deps.cakes == nil || deps.customers == nil || deps.orders == nil || deps.outbox == nil {
			t.Fatalf("memory repositories must be initialized: %+v", deps)
		}
		if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
			t.Fatalf("expected healthy memory storage, got %+v", check)
		}
		deps.close(log.WithField("test", "memory-storage"))
	}
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverPostgres,
	}, log.WithField("test", "postgres-missing-dsn"))
	if err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: "sqlite",
	}, log.WithField("test", "unsupported-driver"))
	if err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}
