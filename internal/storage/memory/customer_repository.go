package memory

import (
	"context"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// customerRepositoryInMemory — in-memory реализация CustomerRepository.
type customerRepositoryInMemory struct {
	table *table[domain.Customer]
}

// NewCustomerRepository возвращает in-memory репозиторий покупателей.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{
		table: newTable(accessors[domain.Customer]{
			id:      func(c domain.Customer) int64 { return c.ID },
			version: func(c domain.Customer) int64 { return c.Version },
			stamp: func(c domain.Customer, id, version int64) domain.Customer {
				c.ID, c.Version = id, version
				return c
			},
		}, domain.ErrCustomerNotFound),
	}
}

func (r *customerRepositoryInMemory) Create(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	return r.table.create(customer), nil
}

// ReserveID гарантирует, что следующие Create выдадут идентификаторы больше id.
func (r *customerRepositoryInMemory) ReserveID(_ context.Context, id int64) error {
	r.table.reserve(id)
	return nil
}

func (r *customerRepositoryInMemory) Get(_ context.Context, id int64) (domain.Customer, error) {
	return r.table.get(id)
}

func (r *customerRepositoryInMemory) Save(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	return r.table.save(customer)
}

// Delete не проверяет, ссылаются ли на покупателя заказы.
func (r *customerRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.table.delete(id)
	return nil
}

func (r *customerRepositoryInMemory) List(_ context.Context) ([]domain.Customer, error) {
	return r.table.list(nil), nil
}

var (
	_ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
	_ domain.IDReserver         = (*customerRepositoryInMemory)(nil)
)
