package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vladislavdragonenkov/bakery/internal/app"
)

// Ключи конфигурации. Переменная окружения: BAKERY_ + ключ в верхнем регистре,
// точки заменяются на "_" (например, BAKERY_POSTGRES_DSN).
const (
	keyHTTPAddr            = "http.addr"
	keyMetricsAddr         = "metrics.addr"
	keyGRPCAddr            = "grpc.addr"
	keyStorageDriver       = "storage.driver"
	keyPostgresDSN         = "postgres.dsn"
	keyPostgresAutoMigrate = "postgres.auto_migrate"
	keyPostgresMaxConns    = "postgres.max_conns"
	keyPostgresConnMaxLife = "postgres.conn_max_lifetime"
	keyKafkaBrokers        = "kafka.brokers"
	keyKafkaClientID       = "kafka.client_id"
	keyKafkaTopic          = "kafka.topic"
	keyKafkaDLQTopic       = "kafka.dlq_topic"
	keyOutboxPollInterval  = "outbox.poll_interval"
	keyOutboxBatchSize     = "outbox.batch_size"
	keyOutboxMaxAttempts   = "outbox.max_attempts"
	keyOutboxRetryDelay    = "outbox.retry_delay"
	keyShutdownTimeout     = "shutdown.timeout"
	keyLogLevel            = "log.level"
	keyLogFormat           = "log.format"
)

const envPrefix = "BAKERY"

// newViper читает необязательный bakery.yaml из dir и включает переопределение через env.
func newViper(dir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("bakery")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("/etc/bakery")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(v *viper.Viper) {
	if strings.EqualFold(strings.TrimSpace(v.GetString(keyLogFormat)), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level := log.InfoLevel
	if raw := strings.TrimSpace(v.GetString(keyLogLevel)); raw != "" {
		parsed, err := log.ParseLevel(raw)
		if err != nil {
			log.WithError(err).Warnf("invalid %s, using %s", keyLogLevel, level)
		} else {
			level = parsed
		}
	}
	log.SetLevel(level)
}

// readConfig собирает app.Config поверх значений по умолчанию.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию
// и возвращается предупреждение.
func readConfig(v *viper.Viper) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q, using default: %v", key, raw, err))
	}
	lookup := func(key string) (string, bool) {
		if !v.IsSet(key) {
			return "", false
		}
		return v.GetString(key), true
	}

	for key, dst := range map[string]*string{
		keyHTTPAddr:      &cfg.HTTPAddr,
		keyMetricsAddr:   &cfg.MetricsAddr,
		keyGRPCAddr:      &cfg.GRPCAddr,
		keyPostgresDSN:   &cfg.PostgresDSN,
		keyKafkaBrokers:  &cfg.KafkaBrokers,
		keyKafkaClientID: &cfg.KafkaClientID,
		keyKafkaTopic:    &cfg.KafkaTopic,
		keyKafkaDLQTopic: &cfg.KafkaDLQTopic,
	} {
		if raw, ok := lookup(key); ok {
			*dst = strings.TrimSpace(raw)
		}
	}

	if raw, ok := lookup(keyStorageDriver); ok {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(raw))
	}

	if raw, ok := lookup(keyPostgresAutoMigrate); ok {
		if value, err := parseBool(raw); err != nil {
			warn(keyPostgresAutoMigrate, raw, err)
		} else {
			cfg.PostgresAutoMigrate = value
		}
	}

	positive := func(v int) bool { return v > 0 }
	for key, dst := range map[string]*int{
		keyOutboxBatchSize:   &cfg.OutboxBatchSize,
		keyOutboxMaxAttempts: &cfg.OutboxMaxAttempts,
		keyPostgresMaxConns:  &cfg.PostgresMaxConns,
	} {
		if raw, ok := lookup(key); ok {
			if value, err := parseInt(raw, positive, "must be > 0"); err != nil {
				warn(key, raw, err)
			} else {
				*dst = value
			}
		}
	}

	durations := []struct {
		key   string
		dst   *time.Duration
		check func(time.Duration) bool
		rule  string
	}{
		{keyOutboxPollInterval, &cfg.OutboxPollInterval, func(d time.Duration) bool { return d > 0 }, "must be > 0"},
		{keyOutboxRetryDelay, &cfg.OutboxRetryDelay, func(d time.Duration) bool { return d >= 0 }, "must be >= 0"},
		{keyPostgresConnMaxLife, &cfg.PostgresConnMaxLifetime, func(d time.Duration) bool { return d > 0 }, "must be > 0"},
		{keyShutdownTimeout, &cfg.ShutdownTimeout, func(d time.Duration) bool { return d > 0 }, "must be > 0"},
	}
	for _, d := range durations {
		if raw, ok := lookup(d.key); ok {
			if value, err := parseDuration(raw, d.check, d.rule); err != nil {
				warn(d.key, raw, err)
			} else {
				*d.dst = value
			}
		}
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean")
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}
