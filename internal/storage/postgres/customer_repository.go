package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

const customerColumns = `id, first_name, last_name, email, delivery_address, version`

func scanCustomer(row interface{ Scan(dest ...any) error }) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.DeliveryAddress, &c.Version)
	return c, err
}

func (r *customerRepository) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	created := customer
	created.Version = 1
	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, delivery_address, version)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING id
	`, customer.FirstName, customer.LastName, customer.Email, customer.DeliveryAddress).Scan(&created.ID); err != nil {
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}

	return created, nil
}

// ReserveID не даёт последовательности customers выдать id и меньшие значения.
func (r *customerRepository) ReserveID(ctx context.Context, id int64) error {
	return reserveSerial(ctx, r.db, "customers", id)
}

func (r *customerRepository) Get(ctx context.Context, id int64) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	customer, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer %d: %w", id, err)
	}

	return customer, nil
}

func (r *customerRepository) Save(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    delivery_address = $5,
		    version = version + 1
		WHERE id = $1 AND version = $6
	`, customer.ID, customer.FirstName, customer.LastName, customer.Email, customer.DeliveryAddress, customer.Version)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("update customer %d: %w", customer.ID, err)
	}
	if err := expectOneRow(res, domain.ErrVersionConflict); err != nil {
		exists, existsErr := rowExists(ctx, r.db, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, customer.ID)
		if existsErr != nil {
			return domain.Customer{}, existsErr
		}
		if !exists {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, err
	}

	customer.Version++
	return customer, nil
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		return wrapReferenceErr(fmt.Sprintf("delete customer %d", id), err)
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		result = append(result, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return result, nil
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.IDReserver         = (*customerRepository)(nil)
)
