package memory

import (
	"context"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// cakeRepositoryInMemory — простая in-memory реализация CakeRepository.
type cakeRepositoryInMemory struct {
	table *table[domain.Cake]
}

// NewCakeRepository возвращает in-memory репозиторий тортов для локальной разработки и тестов.
func NewCakeRepository() domain.CakeRepository {
	return &cakeRepositoryInMemory{
		table: newTable(accessors[domain.Cake]{
			id:      func(c domain.Cake) int64 { return c.ID },
			version: func(c domain.Cake) int64 { return c.Version },
			stamp: func(c domain.Cake, id, version int64) domain.Cake {
				c = c.Clone()
				c.ID, c.Version = id, version
				return c
			},
		}, domain.ErrCakeNotFound),
	}
}

func (r *cakeRepositoryInMemory) Create(_ context.Context, cake domain.Cake) (domain.Cake, error) {
	return r.table.create(cake), nil
}

// ReserveID гарантирует, что следующие Create выдадут идентификаторы больше id.
func (r *cakeRepositoryInMemory) ReserveID(_ context.Context, id int64) error {
	r.table.reserve(id)
	return nil
}

func (r *cakeRepositoryInMemory) Get(_ context.Context, id int64) (domain.Cake, error) {
	return r.table.get(id)
}

func (r *cakeRepositoryInMemory) Save(_ context.Context, cake domain.Cake) (domain.Cake, error) {
	return r.table.save(cake)
}

func (r *cakeRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.table.delete(id)
	return nil
}

func (r *cakeRepositoryInMemory) List(_ context.Context) ([]domain.Cake, error) {
	return r.table.list(nil), nil
}

var (
	_ domain.CakeRepository = (*cakeRepositoryInMemory)(nil)
	_ domain.IDReserver     = (*cakeRepositoryInMemory)(nil)
)
