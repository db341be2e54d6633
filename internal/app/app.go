package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/bakery/internal/health"
	"github.com/vladislavdragonenkov/bakery/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
	"github.com/vladislavdragonenkov/bakery/internal/service/bakery"
	"github.com/vladislavdragonenkov/bakery/internal/service/outbox"
	"github.com/vladislavdragonenkov/bakery/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/bakery/internal/version"
)

// grpcServiceName — имя сервиса в gRPC health protocol.
const grpcServiceName = "bakery.v1.BakeryService"

const defaultShutdownTimeout = 5 * time.Second

// orderEventsMaxLag — после этого ожидания неопубликованные события заказов
// переводят /healthz в degraded.
const orderEventsMaxLag = time.Minute

// Run поднимает REST API, сервер метрик, gRPC health и outbox worker
// и блокируется до отмены ctx или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	bakeryMetrics := metrics.NewBakeryMetrics()

	// Ошибка уже залогирована: без Kafka сервис работает, события не пишутся.
	producer, _ := initKafkaProducer(cfg.KafkaBrokers, cfg.KafkaClientID, logger)
	defer closeKafka(producer, logger)

	var eventsRepo domain.OutboxRepository
	if producer != nil {
		eventsRepo = deps.outbox
	}
	services := newServices(deps, eventsRepo, bakeryMetrics, logger)

	stopWorker := startOutboxWorker(ctx, cfg, deps.outbox, producer, logger)
	defer stopWorker()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if producer != nil {
		healthHandler.RegisterChecker("order_events", healthcheck.NewOrderEventsChecker(deps.outbox, orderEventsMaxLag))
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	errCh := make(chan error, 2)

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	apiSrv := &http.Server{
		Handler:           httpapi.NewRouter(services, logger.WithField("layer", "http"), bakeryMetrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("REST API слушает %s", httpLis.Addr())
		if err := apiSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	grpcSrv, err := startGRPCHealth(cfg.GRPCAddr, logger, errCh)
	if err != nil {
		shutdownHTTP(apiSrv, logger)
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		grpcSrv.stop(shutdownTimeout, logger)
		shutdownHTTP(apiSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		grpcSrv.stop(shutdownTimeout, logger)
		shutdownHTTP(apiSrv, logger)
		return err
	}
}

// newServices собирает сервисы пекарни поверх выбранного хранилища.
// eventsRepo == nil отключает запись событий заказов.
func newServices(deps *runtimeDependencies, eventsRepo domain.OutboxRepository, m *metrics.BakeryMetrics, logger *log.Entry) httpapi.Services {
	serviceLogger := logger.WithField("layer", "service")
	opts := []bakery.Option{
		bakery.WithLogger(serviceLogger),
		bakery.WithMetrics(m),
	}

	resolver := bakery.NewResolver(deps.customers, deps.cakes, opts...)
	return httpapi.Services{
		Cakes:     bakery.NewCakeService(deps.cakes, opts...),
		Customers: bakery.NewCustomerService(deps.customers, deps.orders, opts...),
		Orders:    bakery.NewOrderService(deps.orders, resolver, append(opts, bakery.WithOutbox(eventsRepo))...),
	}
}

// startOutboxWorker запускает публикацию событий в Kafka.
// Возвращает функцию остановки, которая дожидается завершения воркера.
func startOutboxWorker(ctx context.Context, cfg Config, repo domain.OutboxRepository, producer *kafka.Producer, logger *log.Entry) func() {
	if producer == nil || repo == nil {
		logger.Info("kafka is not configured, outbox worker disabled")
		return func() {}
	}

	options := []outbox.Option{
		outbox.WithLogger(logger.WithField("worker", "outbox")),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	}
	if strings.TrimSpace(cfg.KafkaDLQTopic) != "" {
		options = append(options, outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)))
	}
	worker := outbox.NewWorker(repo, kafka.NewOutboxPublisher(producer, cfg.KafkaTopic), options...)

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(workerCtx)
	}()

	return func() { shutdownOutboxWorker(cancel, done, logger) }
}

// shutdownOutboxWorker отменяет воркер и ждёт его завершения не дольше таймаута.
func shutdownOutboxWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info("outbox worker stopped")
	case <-time.After(defaultShutdownTimeout):
		logger.Warn("outbox worker did not stop in time")
	}
}

// grpcHealthServer — gRPC сервер со стандартным health protocol и reflection.
type grpcHealthServer struct {
	server *grpc.Server
	health *health.Server
}

func startGRPCHealth(addr string, logger *log.Entry, errCh chan<- error) (*grpcHealthServer, error) {
	if strings.TrimSpace(addr) == "" {
		logger.Info("gRPC address is empty, gRPC health server disabled")
		return nil, nil
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", addr, err)
	}

	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)

	go func() {
		logger.Infof("gRPC health сервер слушает %s", lis.Addr())
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	return &grpcHealthServer{server: server, health: healthServer}, nil
}

// stop переводит health в NOT_SERVING и останавливает сервер, принудительно по таймауту.
func (g *grpcHealthServer) stop(timeout time.Duration, logger *log.Entry) {
	if g == nil {
		return
	}
	g.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		g.server.Stop()
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics, /livez, /readyz и /healthz.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
