package bakery

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opGet    = "get"
	opDelete = "delete"
	opList   = "list"
)

// gateway — общий контракт хранилища для всех трёх сущностей.
type gateway[T any] interface {
	Create(ctx context.Context, entity T) (T, error)
	Get(ctx context.Context, id int64) (T, error)
	Save(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]T, error)
}

// prepareFunc вызывается перед каждой записью в хранилище.
type prepareFunc[T any] func(ctx context.Context, candidate T) error

// entityOps реализует create/update/get/delete/list поверх gateway
// с единым merge-update алгоритмом.
type entityOps[T any] struct {
	entity   string
	repo     gateway[T]
	notFound error
	merge    func(current, proposed T) T
	id       func(T) int64

	logger  *log.Entry
	metrics *metrics.BakeryMetrics
}

func (o *entityOps[T]) create(ctx context.Context, entity T, prepare prepareFunc[T]) (created T, err error) {
	defer o.observe(opCreate, time.Now(), &err)

	if prepare != nil {
		if err := prepare(ctx, entity); err != nil {
			var zero T
			return zero, err
		}
	}

	created, err = o.repo.Create(ctx, entity)
	if err != nil {
		var zero T
		return zero, err
	}

	o.logger.WithFields(log.Fields{"operation": opCreate, "id": o.id(created)}).Debug("entity created")
	return created, nil
}

// update ищет текущее состояние по id: если оно есть, сливает proposed
// и сохраняет один раз; если нет, создаёт proposed как новую сущность
// с идентификатором, отличным от запрошенного.
// Возвращает записанную сущность и исход (merged/created).
func (o *entityOps[T]) update(ctx context.Context, id int64, proposed T, prepare prepareFunc[T]) (written T, outcome string, err error) {
	defer o.observe(opUpdate, time.Now(), &err)

	var zero T
	current, err := o.repo.Get(ctx, id)
	switch {
	case err == nil:
		merged := o.merge(current, proposed)
		if prepare != nil {
			if err := prepare(ctx, merged); err != nil {
				return zero, "", err
			}
		}
		saved, err := o.repo.Save(ctx, merged)
		if err != nil {
			return zero, "", err
		}
		o.metrics.RecordMergeOutcome(o.entity, metrics.OutcomeMerged)
		o.logger.WithFields(log.Fields{"operation": opUpdate, "id": id}).Debug("entity merged")
		return saved, metrics.OutcomeMerged, nil

	case errors.Is(err, o.notFound):
		if prepare != nil {
			if err := prepare(ctx, proposed); err != nil {
				return zero, "", err
			}
		}
		if err := o.reserve(ctx, id); err != nil {
			return zero, "", err
		}
		created, err := o.repo.Create(ctx, proposed)
		if err != nil {
			return zero, "", err
		}
		o.metrics.RecordMergeOutcome(o.entity, metrics.OutcomeCreated)
		o.logger.WithFields(log.Fields{
			"operation":    opUpdate,
			"requested_id": id,
			"id":           o.id(created),
		}).Info("entity not found on update, created a new one")
		return created, metrics.OutcomeCreated, nil

	default:
		return zero, "", err
	}
}

// reserve сдвигает последовательность хранилища за id, чтобы Create
// не выдал только что запрошенный отсутствующий идентификатор.
func (o *entityOps[T]) reserve(ctx context.Context, id int64) error {
	reserver, ok := o.repo.(domain.IDReserver)
	if !ok || id <= 0 {
		return nil
	}
	return reserver.ReserveID(ctx, id)
}

func (o *entityOps[T]) get(ctx context.Context, id int64) (entity T, found bool, err error) {
	defer o.observe(opGet, time.Now(), &err)

	entity, err = o.repo.Get(ctx, id)
	if errors.Is(err, o.notFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return entity, true, nil
}

func (o *entityOps[T]) delete(ctx context.Context, id int64) (err error) {
	defer o.observe(opDelete, time.Now(), &err)

	if err := o.repo.Delete(ctx, id); err != nil {
		return err
	}
	o.logger.WithFields(log.Fields{"operation": opDelete, "id": id}).Debug("entity deleted")
	return nil
}

func (o *entityOps[T]) list(ctx context.Context) (entities []T, err error) {
	defer o.observe(opList, time.Now(), &err)

	return o.repo.List(ctx)
}

func (o *entityOps[T]) observe(operation string, started time.Time, errPtr *error) {
	err := *errPtr
	o.metrics.RecordOperation(o.entity, operation, err, time.Since(started))
	if err != nil {
		o.logger.WithError(err).WithField("operation", operation).Warn("entity operation failed")
	}
}
