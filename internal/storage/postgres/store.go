package postgres

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout = 5 * time.Second
	// opTimeout ограничивает одну операцию репозитория.
	opTimeout = 5 * time.Second
)

// Коды ошибок PostgreSQL, которые репозитории переводят в доменные ошибки.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var errStoreNotInitialized = errors.New("postgres store is not initialized")

// PoolOptions — параметры пула соединений; нулевые и отрицательные поля
// заменяются значениями DefaultPoolOptions.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolOptions рассчитан на один экземпляр bakery-service.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

func (o PoolOptions) withDefaults() PoolOptions {
	d := DefaultPoolOptions()
	o.MaxOpenConns = cmp.Or(max(o.MaxOpenConns, 0), d.MaxOpenConns)
	// Простаивающих соединений не больше, чем открытых.
	o.MaxIdleConns = min(cmp.Or(max(o.MaxIdleConns, 0), d.MaxIdleConns), o.MaxOpenConns)
	o.ConnMaxLifetime = cmp.Or(max(o.ConnMaxLifetime, 0), d.ConnMaxLifetime)
	o.ConnMaxIdleTime = cmp.Or(max(o.ConnMaxIdleTime, 0), d.ConnMaxIdleTime)
	return o
}

// Store — подключение к базе пекарни через pgx/stdlib.
type Store struct {
	db *sql.DB
}

// Open подключается к PostgreSQL с пулом по умолчанию.
func Open(ctx context.Context, dsn string) (*Store, error) {
	return OpenWithPool(ctx, dsn, PoolOptions{})
}

// OpenWithPool подключается к PostgreSQL и убеждается, что база отвечает.
func OpenWithPool(ctx context.Context, dsn string, opts PoolOptions) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	opts = opts.withDefaults()
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	store := &Store{db: db}
	if err := store.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return store, nil
}

// DB отдаёт *sql.DB для миграций и интеграционных тестов.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping служит health-проверкой хранилища.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool {
	return hasPgCode(err, pgUniqueViolation)
}

// isForeignKeyViolation сообщает о нарушении ссылочной целостности
// (несуществующий покупатель или торт, удаление используемой записи).
func isForeignKeyViolation(err error) bool {
	return hasPgCode(err, pgForeignKeyViolation)
}

// expectOneRow превращает пустой UPDATE/DELETE в ошибку notFound.
func expectOneRow(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

// reserveSerial сдвигает BIGSERIAL-последовательность таблицы до id,
// если она ещё не дошла до него. Последовательность только растёт.
func reserveSerial(ctx context.Context, q queryer, table string, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := q.ExecContext(ctx, `
		SELECT setval(s.seq, $2::bigint)
		FROM (SELECT pg_get_serial_sequence($1, 'id')::regclass AS seq) AS s
		WHERE $2::bigint > COALESCE(pg_sequence_last_value(s.seq), 0)
	`, table, id); err != nil {
		return fmt.Errorf("reserve %s id %d: %w", table, id, err)
	}
	return nil
}
