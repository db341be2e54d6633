package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Строка заказа и его позиции в order_cakes пишутся в одной транзакции.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `id, name, delivery_date, status, customer_id, version`

func scanOrder(row interface{ Scan(dest ...any) error }) (domain.CustomerOrder, error) {
	var (
		order        domain.CustomerOrder
		deliveryDate time.Time
	)
	if err := row.Scan(&order.ID, &order.Name, &deliveryDate, &order.Status, &order.CustomerID, &order.Version); err != nil {
		return domain.CustomerOrder{}, err
	}
	order.DeliveryDate = civil.DateOf(deliveryDate)
	return order, nil
}

func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func (r *orderRepository) Create(ctx context.Context, order domain.CustomerOrder) (domain.CustomerOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.CustomerOrder{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := order.Clone()
	created.Version = 1
	err = tx.QueryRowContext(ctx, `
		INSERT INTO customer_orders (name, delivery_date, status, customer_id, version)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING id
	`, order.Name, dateArg(order.DeliveryDate), order.Status, order.CustomerID).Scan(&created.ID)
	if err != nil {
		return domain.CustomerOrder{}, wrapReferenceErr("insert customer order", err)
	}

	if err := insertOrderCakes(ctx, tx, created.ID, created.CakeIDs); err != nil {
		return domain.CustomerOrder{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.CustomerOrder{}, fmt.Errorf("commit tx: %w", err)
	}

	return created, nil
}

// ReserveID не даёт последовательности customer_orders выдать id и меньшие значения.
func (r *orderRepository) ReserveID(ctx context.Context, id int64) error {
	return reserveSerial(ctx, r.db, "customer_orders", id)
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.CustomerOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM customer_orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CustomerOrder{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.CustomerOrder{}, fmt.Errorf("get customer order %d: %w", id, err)
	}

	cakes, err := r.loadCakeIDs(ctx, `WHERE order_id = $1`, id)
	if err != nil {
		return domain.CustomerOrder{}, err
	}
	order.CakeIDs = cakes[order.ID]

	return order, nil
}

func (r *orderRepository) Save(ctx context.Context, order domain.CustomerOrder) (domain.CustomerOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.CustomerOrder{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE customer_orders
		SET name = $2,
		    delivery_date = $3,
		    status = $4,
		    customer_id = $5,
		    version = version + 1
		WHERE id = $1 AND version = $6
	`, order.ID, order.Name, dateArg(order.DeliveryDate), order.Status, order.CustomerID, order.Version)
	if err != nil {
		return domain.CustomerOrder{}, wrapReferenceErr(fmt.Sprintf("update customer order %d", order.ID), err)
	}
	if err := expectOneRow(res, domain.ErrVersionConflict); err != nil {
		exists, existsErr := rowExists(ctx, tx, `SELECT EXISTS (SELECT 1 FROM customer_orders WHERE id = $1)`, order.ID)
		if existsErr != nil {
			return domain.CustomerOrder{}, existsErr
		}
		if !exists {
			return domain.CustomerOrder{}, domain.ErrOrderNotFound
		}
		return domain.CustomerOrder{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_cakes WHERE order_id = $1`, order.ID); err != nil {
		return domain.CustomerOrder{}, fmt.Errorf("clear order cakes: %w", err)
	}
	if err := insertOrderCakes(ctx, tx, order.ID, order.CakeIDs); err != nil {
		return domain.CustomerOrder{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.CustomerOrder{}, fmt.Errorf("commit tx: %w", err)
	}

	saved := order.Clone()
	saved.Version++
	return saved, nil
}

// Delete удаляет заказ; строки order_cakes удаляются каскадно.
func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM customer_orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete customer order %d: %w", id, err)
	}
	return nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.CustomerOrder, error) {
	return r.list(ctx, "", nil)
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.CustomerOrder, error) {
	return r.list(ctx, `WHERE customer_id = $1`, []any{customerID})
}

func (r *orderRepository) list(ctx context.Context, where string, args []any) ([]domain.CustomerOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM customer_orders `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	defer rows.Close()

	result := make([]domain.CustomerOrder, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer order: %w", err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer orders: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	cakes, err := r.loadCakeIDs(ctx,
		`WHERE order_id IN (SELECT id FROM customer_orders `+where+`)`, args...)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].CakeIDs = cakes[result[i].ID]
	}

	return result, nil
}

// loadCakeIDs возвращает торты заказов в порядке позиций, сгруппированные по order_id.
func (r *orderRepository) loadCakeIDs(ctx context.Context, where string, args ...any) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, cake_id FROM order_cakes `+where+` ORDER BY order_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("query order cakes: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]int64)
	for rows.Next() {
		var orderID, cakeID int64
		if err := rows.Scan(&orderID, &cakeID); err != nil {
			return nil, fmt.Errorf("scan order cake: %w", err)
		}
		result[orderID] = append(result[orderID], cakeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order cakes: %w", err)
	}

	return result, nil
}

func insertOrderCakes(ctx context.Context, tx *sql.Tx, orderID int64, cakeIDs []int64) error {
	for position, cakeID := range cakeIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_cakes (order_id, position, cake_id)
			VALUES ($1, $2, $3)
		`, orderID, position, cakeID); err != nil {
			return wrapReferenceErr(fmt.Sprintf("insert order cake %d", cakeID), err)
		}
	}
	return nil
}

func wrapReferenceErr(op string, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrReferenceViolation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ domain.OrderRepository = (*orderRepository)(nil)
	_ domain.IDReserver      = (*orderRepository)(nil)
)
