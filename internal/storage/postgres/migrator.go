package postgres

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Миграции схемы пекарни встроены в бинарник как пары
// sql/migrations/NNNN_name.up.sql и NNNN_name.down.sql.
const (
	migrationsDir    = "sql/migrations"
	migrationTimeout = 5 * time.Second
	// migrationLockKey сериализует миграции между репликами bakery-service.
	migrationLockKey = int64(0x62616b65)

	schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	recordMigrationQuery = `INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, NOW())`
	forgetMigrationQuery = `DELETE FROM schema_migrations WHERE version = $1`
)

var (
	//go:embed sql/migrations/*.sql
	migrationsFS embed.FS

	migrationFileName = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)
)

type migrationDirection string

const (
	migrationUp   migrationDirection = "up"
	migrationDown migrationDirection = "down"
)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// label — имя миграции в том виде, в каком оно записано в файлах.
func (m migration) label() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// MigrateUp применяет up-миграции; steps=0 применяет все.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.migrate(ctx, migrationUp, steps)
}

// MigrateDown откатывает последние steps миграций; steps<=0 откатывает одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	return s.migrate(ctx, migrationDown, max(steps, 1))
}

// MigrationState описывает состояние схемы БД.
type MigrationState struct {
	// Version — номер последней применённой миграции, 0 для пустой схемы.
	Version int64
	Applied int
	// Available — количество миграций, встроенных в бинарник.
	Available int
	// PendingNames — неприменённые миграции в порядке применения.
	PendingNames []string
}

// Pending возвращает количество ещё не применённых миграций.
func (m MigrationState) Pending() int {
	return max(m.Available-m.Applied, 0)
}

// MigrationStatus сверяет встроенные миграции с schema_migrations.
func (s *Store) MigrationStatus(ctx context.Context) (MigrationState, error) {
	if s == nil || s.db == nil {
		return MigrationState{}, errStoreNotInitialized
	}

	plan, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		return MigrationState{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return MigrationState{}, fmt.Errorf("ensure migration table: %w", err)
	}
	applied, err := appliedVersions(ctx, s.db)
	if err != nil {
		return MigrationState{}, err
	}

	state := MigrationState{Applied: len(applied), Available: len(plan)}
	if len(applied) > 0 {
		state.Version = applied[len(applied)-1]
	}
	for _, m := range plan {
		if _, found := slices.BinarySearch(applied, m.Version); !found {
			state.PendingNames = append(state.PendingNames, m.label())
		}
	}
	return state, nil
}

func (s *Store) migrate(ctx context.Context, direction migrationDirection, steps int) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	plan, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	return withMigrationLock(ctx, conn, func() error {
		if _, err := conn.ExecContext(ctx, schemaMigrationsDDL); err != nil {
			return fmt.Errorf("ensure migration table: %w", err)
		}
		applied, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}

		switch direction {
		case migrationUp:
			return migrateUp(ctx, conn, plan, applied, steps)
		case migrationDown:
			return migrateDown(ctx, conn, plan, applied, steps)
		default:
			return fmt.Errorf("unsupported migration direction: %s", direction)
		}
	})
}

// withMigrationLock держит advisory lock на соединении conn, пока выполняется fn.
func withMigrationLock(ctx context.Context, conn *sql.Conn, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	if _, err := conn.ExecContext(lockCtx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	return fn()
}

func migrateUp(ctx context.Context, conn *sql.Conn, plan []migration, applied []int64, steps int) error {
	done := 0
	for _, m := range plan {
		if steps > 0 && done >= steps {
			break
		}
		if _, found := slices.BinarySearch(applied, m.Version); found {
			continue
		}
		if err := runMigration(ctx, conn, m, migrationUp); err != nil {
			return err
		}
		done++
	}
	return nil
}

func migrateDown(ctx context.Context, conn *sql.Conn, plan []migration, applied []int64, steps int) error {
	for i := len(applied) - 1; i >= 0 && len(applied)-i <= steps; i-- {
		idx := slices.IndexFunc(plan, func(m migration) bool { return m.Version == applied[i] })
		if idx < 0 {
			return fmt.Errorf("cannot rollback unknown migration version %d", applied[i])
		}
		if err := runMigration(ctx, conn, plan[idx], migrationDown); err != nil {
			return err
		}
	}
	return nil
}

// runMigration выполняет тело миграции и запись в schema_migrations в одной транзакции.
func runMigration(ctx context.Context, conn *sql.Conn, m migration, direction migrationDirection) error {
	body, record, args := m.UpSQL, recordMigrationQuery, []any{m.Version, m.Name}
	if direction == migrationDown {
		body, record, args = m.DownSQL, forgetMigrationQuery, []any{m.Version}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s migration %s: %w", direction, m.label(), err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("execute %s migration %s: %w", direction, m.label(), err)
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record %s migration %s: %w", direction, m.label(), err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s migration %s: %w", direction, m.label(), err)
	}
	return nil
}

// appliedVersions возвращает применённые версии по возрастанию.
func appliedVersions(ctx context.Context, q queryer) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return versions, nil
}

// loadMigrationsFromFS собирает пары up/down из fsys и сортирует их по версии.
func loadMigrationsFromFS(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int64]*migration)
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		if err := addMigrationFile(fsys, byVersion, entry.Name()); err != nil {
			return nil, err
		}
	}
	if len(byVersion) == 0 {
		return nil, errors.New("no migration files found")
	}

	plan := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %s must have both up and down files", m.label())
		}
		plan = append(plan, *m)
	}
	slices.SortFunc(plan, func(a, b migration) int { return cmp.Compare(a.Version, b.Version) })
	return plan, nil
}

func addMigrationFile(fsys fs.FS, byVersion map[int64]*migration, file string) error {
	parts := migrationFileName.FindStringSubmatch(file)
	if parts == nil {
		return fmt.Errorf("invalid migration file name: %s", file)
	}
	version, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("parse migration version from %s: %w", file, err)
	}

	raw, err := fs.ReadFile(fsys, path.Join(migrationsDir, file))
	if err != nil {
		return fmt.Errorf("read migration file %s: %w", file, err)
	}
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return fmt.Errorf("migration file is empty: %s", file)
	}

	m, ok := byVersion[version]
	if !ok {
		m = &migration{Version: version, Name: parts[2]}
		byVersion[version] = m
	}
	if m.Name != parts[2] {
		return fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, m.Name, parts[2])
	}

	target := &m.UpSQL
	if migrationDirection(parts[3]) == migrationDown {
		target = &m.DownSQL
	}
	if *target != "" {
		return fmt.Errorf("duplicate %s migration for version %d", parts[3], version)
	}
	*target = body
	return nil
}
