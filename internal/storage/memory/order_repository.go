package memory

import (
	"context"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Ссылки на торты сохраняются как есть: внешних ключей у этой реализации нет.
type orderRepositoryInMemory struct {
	table *table[domain.CustomerOrder]
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		table: newTable(accessors[domain.CustomerOrder]{
			id:      func(o domain.CustomerOrder) int64 { return o.ID },
			version: func(o domain.CustomerOrder) int64 { return o.Version },
			stamp: func(o domain.CustomerOrder, id, version int64) domain.CustomerOrder {
				o = o.Clone()
				o.ID, o.Version = id, version
				return o
			},
		}, domain.ErrOrderNotFound),
	}
}

func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.CustomerOrder) (domain.CustomerOrder, error) {
	return r.table.create(order), nil
}

// ReserveID гарантирует, что следующие Create выдадут идентификаторы больше id.
func (r *orderRepositoryInMemory) ReserveID(_ context.Context, id int64) error {
	r.table.reserve(id)
	return nil
}

func (r *orderRepositoryInMemory) Get(_ context.Context, id int64) (domain.CustomerOrder, error) {
	return r.table.get(id)
}

func (r *orderRepositoryInMemory) Save(_ context.Context, order domain.CustomerOrder) (domain.CustomerOrder, error) {
	return r.table.save(order)
}

func (r *orderRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.table.delete(id)
	return nil
}

func (r *orderRepositoryInMemory) List(_ context.Context) ([]domain.CustomerOrder, error) {
	return r.table.list(nil), nil
}

// ListByCustomer возвращает заказы покупателя по возрастанию ID.
func (r *orderRepositoryInMemory) ListByCustomer(_ context.Context, customerID int64) ([]domain.CustomerOrder, error) {
	return r.table.list(func(o domain.CustomerOrder) bool {
		return o.CustomerID == customerID
	}), nil
}

var (
	_ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
	_ domain.IDReserver      = (*orderRepositoryInMemory)(nil)
)
