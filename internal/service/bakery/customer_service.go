package bakery

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

const entityCustomer = "customer"

// CustomerService управляет покупателями.
type CustomerService struct {
	ops    *entityOps[domain.Customer]
	orders domain.OrderRepository
}

// NewCustomerService создаёт сервис покупателей.
// orders нужен только для производного списка заказов покупателя.
func NewCustomerService(repo domain.CustomerRepository, orders domain.OrderRepository, options ...Option) *CustomerService {
	opts := buildOptions("customer-service", options)
	return &CustomerService{
		ops: &entityOps[domain.Customer]{
			entity:   entityCustomer,
			repo:     repo,
			notFound: domain.ErrCustomerNotFound,
			merge:    domain.MergeCustomer,
			id:       func(c domain.Customer) int64 { return c.ID },
			logger:   opts.Logger.WithField("entity", entityCustomer),
			metrics:  opts.Metrics,
		},
		orders: orders,
	}
}

func (s *CustomerService) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	return s.ops.create(ctx, customer, nil)
}

// Update сливает имя, фамилию, email и адрес доставки; при отсутствии id создаёт покупателя.
func (s *CustomerService) Update(ctx context.Context, id int64, proposed domain.Customer) (domain.Customer, error) {
	customer, _, err := s.ops.update(ctx, id, proposed, nil)
	return customer, err
}

func (s *CustomerService) Get(ctx context.Context, id int64) (domain.Customer, bool, error) {
	return s.ops.get(ctx, id)
}

// Delete не проверяет, есть ли у покупателя заказы.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	return s.ops.delete(ctx, id)
}

func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	return s.ops.list(ctx)
}

// Orders возвращает заказы покупателя. Список вычисляется запросом
// и не хранится в записи покупателя.
func (s *CustomerService) Orders(ctx context.Context, customerID int64) ([]domain.CustomerOrder, error) {
	if s.orders == nil {
		return nil, errors.New("customer orders view is not configured")
	}
	if _, err := s.ops.repo.Get(ctx, customerID); err != nil {
		return nil, fmt.Errorf("customer %d orders: %w", customerID, err)
	}
	return s.orders.ListByCustomer(ctx, customerID)
}
