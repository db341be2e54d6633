package bakery

import (
	"context"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

const entityOrder = "customer_order"

// OrderService управляет заказами покупателей.
// Перед каждой записью ссылки заказа проверяются через Resolver.
type OrderService struct {
	ops      *entityOps[domain.CustomerOrder]
	resolver *Resolver
	events   *orderEvents
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(repo domain.OrderRepository, resolver *Resolver, options ...Option) *OrderService {
	opts := buildOptions("order-service", options)
	logger := opts.Logger.WithField("entity", entityOrder)
	return &OrderService{
		ops: &entityOps[domain.CustomerOrder]{
			entity:   entityOrder,
			repo:     repo,
			notFound: domain.ErrOrderNotFound,
			merge:    domain.MergeCustomerOrder,
			id:       func(o domain.CustomerOrder) int64 { return o.ID },
			logger:   logger,
			metrics:  opts.Metrics,
		},
		resolver: resolver,
		events: &orderEvents{
			outbox:  opts.Outbox,
			now:     opts.Now,
			logger:  logger,
			metrics: opts.Metrics,
		},
	}
}

// resolve проверяет покупателя и торты кандидата на запись.
func (s *OrderService) resolve(ctx context.Context, candidate domain.CustomerOrder) error {
	_, err := s.resolver.Resolve(ctx, candidate.CustomerID, candidate.CakeIDs)
	return err
}

// Create сохраняет заказ, если его покупатель существует.
func (s *OrderService) Create(ctx context.Context, order domain.CustomerOrder) (domain.CustomerOrder, error) {
	created, err := s.ops.create(ctx, order, s.resolve)
	if err != nil {
		return domain.CustomerOrder{}, err
	}
	s.events.written(created, domain.EventCustomerOrderCreated)
	return created, nil
}

// Update сливает name, status, дату доставки и торты в заказ id.
// Покупатель заказа при этом не меняется. Если заказа нет, proposed
// создаётся как новый заказ со своим покупателем.
func (s *OrderService) Update(ctx context.Context, id int64, proposed domain.CustomerOrder) (domain.CustomerOrder, error) {
	written, outcome, err := s.ops.update(ctx, id, proposed, s.resolve)
	if err != nil {
		return domain.CustomerOrder{}, err
	}

	eventType := domain.EventCustomerOrderUpdated
	if outcome == metrics.OutcomeCreated {
		eventType = domain.EventCustomerOrderCreated
	}
	s.events.written(written, eventType)
	return written, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (domain.CustomerOrder, bool, error) {
	return s.ops.get(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	if err := s.ops.delete(ctx, id); err != nil {
		return err
	}
	s.events.deleted(id)
	return nil
}

func (s *OrderService) List(ctx context.Context) ([]domain.CustomerOrder, error) {
	return s.ops.list(ctx)
}
