package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

type cakeRepository struct {
	db *sql.DB
}

// NewCakeRepository создаёт PostgreSQL-реализацию CakeRepository.
func NewCakeRepository(store *Store) domain.CakeRepository {
	return &cakeRepository{db: store.DB()}
}

func (r *cakeRepository) Create(ctx context.Context, cake domain.Cake) (domain.Cake, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	created := cake.Clone()
	created.Version = 1
	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO cakes (name, description, image, version)
		VALUES ($1, $2, $3, 1)
		RETURNING id
	`, cake.Name, cake.Description, cake.Image).Scan(&created.ID); err != nil {
		return domain.Cake{}, fmt.Errorf("insert cake: %w", err)
	}

	return created, nil
}

// ReserveID не даёт последовательности cakes выдать id и меньшие значения.
func (r *cakeRepository) ReserveID(ctx context.Context, id int64) error {
	return reserveSerial(ctx, r.db, "cakes", id)
}

func (r *cakeRepository) Get(ctx context.Context, id int64) (domain.Cake, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cake domain.Cake
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, image, version
		FROM cakes
		WHERE id = $1
	`, id).Scan(&cake.ID, &cake.Name, &cake.Description, &cake.Image, &cake.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cake{}, domain.ErrCakeNotFound
	}
	if err != nil {
		return domain.Cake{}, fmt.Errorf("get cake %d: %w", id, err)
	}

	return cake, nil
}

func (r *cakeRepository) Save(ctx context.Context, cake domain.Cake) (domain.Cake, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE cakes
		SET name = $2,
		    description = $3,
		    image = $4,
		    version = version + 1
		WHERE id = $1 AND version = $5
	`, cake.ID, cake.Name, cake.Description, cake.Image, cake.Version)
	if err != nil {
		return domain.Cake{}, fmt.Errorf("update cake %d: %w", cake.ID, err)
	}
	if err := expectOneRow(res, domain.ErrVersionConflict); err != nil {
		return domain.Cake{}, r.classifyMiss(ctx, cake.ID, err)
	}

	saved := cake.Clone()
	saved.Version++
	return saved, nil
}

// classifyMiss различает отсутствующую строку и устаревшую версию.
func (r *cakeRepository) classifyMiss(ctx context.Context, id int64, err error) error {
	if !errors.Is(err, domain.ErrVersionConflict) {
		return err
	}
	exists, existsErr := rowExists(ctx, r.db, `SELECT EXISTS (SELECT 1 FROM cakes WHERE id = $1)`, id)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return domain.ErrCakeNotFound
	}
	return err
}

func (r *cakeRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cakes WHERE id = $1`, id); err != nil {
		return wrapReferenceErr(fmt.Sprintf("delete cake %d", id), err)
	}
	return nil
}

func (r *cakeRepository) List(ctx context.Context) ([]domain.Cake, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, image, version
		FROM cakes
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list cakes: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Cake, 0)
	for rows.Next() {
		var cake domain.Cake
		if err := rows.Scan(&cake.ID, &cake.Name, &cake.Description, &cake.Image, &cake.Version); err != nil {
			return nil, fmt.Errorf("scan cake: %w", err)
		}
		result = append(result, cake)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cakes: %w", err)
	}

	return result, nil
}

// rowExists выполняет запрос вида SELECT EXISTS (...).
func rowExists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check row exists: %w", err)
	}
	return exists, nil
}

// queryer — общий интерфейс *sql.DB и *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ domain.CakeRepository = (*cakeRepository)(nil)
	_ domain.IDReserver     = (*cakeRepository)(nil)
)
