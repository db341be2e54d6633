package bakery

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

// Resolution — результат проверки ссылок заказа.
type Resolution struct {
	Customer domain.Customer
	// Cakes содержит найденные торты в порядке ссылок, с повторами.
	Cakes []domain.Cake
	// Unresolved — идентификаторы тортов, которых нет в хранилище.
	// Они не отклоняют запись: решение остаётся за ограничениями хранилища.
	Unresolved []int64
}

// Resolver проверяет, что покупатель и торты заказа существуют.
type Resolver struct {
	customers domain.CustomerRepository
	cakes     domain.CakeRepository
	logger    *log.Entry
	metrics   *metrics.BakeryMetrics
}

// NewResolver создаёт Resolver поверх хранилищ покупателей и тортов.
func NewResolver(customers domain.CustomerRepository, cakes domain.CakeRepository, options ...Option) *Resolver {
	opts := buildOptions("relationship-resolver", options)
	return &Resolver{
		customers: customers,
		cakes:     cakes,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Resolve загружает покупателя и торты заказа.
// Отсутствующий покупатель прерывает запись заказа (ErrCustomerNotFound).
// Отсутствующие торты попадают в Unresolved.
func (r *Resolver) Resolve(ctx context.Context, customerID int64, cakeIDs []int64) (Resolution, error) {
	customer, err := r.customers.Get(ctx, customerID)
	if errors.Is(err, domain.ErrCustomerNotFound) {
		return Resolution{}, fmt.Errorf("resolve customer %d: %w", customerID, err)
	}
	if err != nil {
		return Resolution{}, err
	}

	resolution := Resolution{
		Customer: customer,
		Cakes:    make([]domain.Cake, 0, len(cakeIDs)),
	}
	for _, cakeID := range cakeIDs {
		cake, err := r.cakes.Get(ctx, cakeID)
		if errors.Is(err, domain.ErrCakeNotFound) {
			resolution.Unresolved = append(resolution.Unresolved, cakeID)
			continue
		}
		if err != nil {
			return Resolution{}, err
		}
		resolution.Cakes = append(resolution.Cakes, cake)
	}

	if len(resolution.Unresolved) > 0 {
		r.metrics.RecordUnresolvedCakeRefs(len(resolution.Unresolved))
		r.logger.WithFields(log.Fields{
			"customer_id": customerID,
			"cake_ids":    resolution.Unresolved,
		}).Warn("order references unknown cakes")
	}

	return resolution, nil
}
