package app

import "time"

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса пекарни.
// Все поля сравнимы, чтобы конфигурации можно было сравнивать через ==.
type Config struct {
	HTTPAddr    string
	MetricsAddr string
	// GRPCAddr пустой отключает gRPC health-сервер.
	GRPCAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	// PostgresMaxConns ограничивает пул соединений; 0 — значение драйвера хранилища.
	PostgresMaxConns        int
	PostgresConnMaxLifetime time.Duration

	// KafkaBrokers — список брокеров через запятую; пустой отключает публикацию событий.
	KafkaBrokers  string
	KafkaClientID string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		GRPCAddr:    ":50051",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,

		KafkaClientID: "bakery-service",
		KafkaTopic:    "bakery.customer_order.events",
		KafkaDLQTopic: "bakery.dlq",

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   50 * time.Millisecond,

		ShutdownTimeout: 5 * time.Second,
	}
}
