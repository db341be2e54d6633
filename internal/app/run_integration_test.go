package app

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthcheck "github.com/vladislavdragonenkov/bakery/internal/health"
)

func loopbackConfig() Config {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	return cfg
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, Run(ctx, loopbackConfig()), context.DeadlineExceeded)
}

func TestRun_RejectsUnknownStorage(t *testing.T) {
	cfg := loopbackConfig()
	cfg.StorageDriver = "sqlite"

	require.ErrorContains(t, Run(context.Background(), cfg), "unsupported storage driver")
}

func TestRun_BakeryOverRESTWithGRPCHealth(t *testing.T) {
	cfg := loopbackConfig()
	cfg.HTTPAddr = freeLocalAddr(t)
	cfg.GRPCAddr = freeLocalAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- Run(ctx, cfg) }()
	t.Cleanup(func() {
		cancel()
		require.ErrorIs(t, <-stopped, context.Canceled)
	})
	awaitListening(t, cfg.HTTPAddr)
	awaitListening(t, cfg.GRPCAddr)

	resp, err := http.Post("http://"+cfg.HTTPAddr+"/server/cakes/new", "application/json",
		strings.NewReader(`{"name":"Napoleon","description":"Puff pastry with custard"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cake struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cake))
	require.Positive(t, cake.ID)
	require.Equal(t, "Napoleon", cake.Name)

	conn, err := grpc.NewClient(cfg.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	checkCtx, checkCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer checkCancel()
	res, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{Service: grpcServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, res.GetStatus())
}

func TestInitRuntimeDependencies_Postgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("BAKERY_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("BAKERY_POSTGRES_TEST_DSN is not set")
	}

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = dsn
	cfg.PostgresMaxConns = 4

	logger := log.WithField("test", "postgres-init")
	deps, err := initRuntimeDependencies(context.Background(), cfg, logger)
	if err != nil {
		t.Skipf("postgres is not reachable: %v", err)
	}
	t.Cleanup(func() { deps.close(logger) })

	require.NotNil(t, deps.cakes)
	require.NotNil(t, deps.customers)
	require.NotNil(t, deps.orders)
	require.NotNil(t, deps.outbox)
	require.Equal(t, healthcheck.StatusHealthy, deps.storageChecker.Check(context.Background()).Status)
}
