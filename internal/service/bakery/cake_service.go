package bakery

import (
	"context"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

const entityCake = "cake"

// CakeService управляет каталогом тортов.
type CakeService struct {
	ops *entityOps[domain.Cake]
}

// NewCakeService создаёт сервис тортов.
func NewCakeService(repo domain.CakeRepository, options ...Option) *CakeService {
	opts := buildOptions("cake-service", options)
	return &CakeService{
		ops: &entityOps[domain.Cake]{
			entity:   entityCake,
			repo:     repo,
			notFound: domain.ErrCakeNotFound,
			merge:    domain.MergeCake,
			id:       func(c domain.Cake) int64 { return c.ID },
			logger:   opts.Logger.WithField("entity", entityCake),
			metrics:  opts.Metrics,
		},
	}
}

// Create сохраняет новый торт; идентификатор назначает хранилище.
func (s *CakeService) Create(ctx context.Context, cake domain.Cake) (domain.Cake, error) {
	return s.ops.create(ctx, cake, nil)
}

// Update сливает name и description в торт id, либо создаёт новый торт, если id не найден.
func (s *CakeService) Update(ctx context.Context, id int64, proposed domain.Cake) (domain.Cake, error) {
	cake, _, err := s.ops.update(ctx, id, proposed, nil)
	return cake, err
}

// Get возвращает торт; found=false, если его нет.
func (s *CakeService) Get(ctx context.Context, id int64) (domain.Cake, bool, error) {
	return s.ops.get(ctx, id)
}

func (s *CakeService) Delete(ctx context.Context, id int64) error {
	return s.ops.delete(ctx, id)
}

func (s *CakeService) List(ctx context.Context) ([]domain.Cake, error) {
	return s.ops.list(ctx)
}
