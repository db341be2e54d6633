package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// Статус сообщения меняется только из pending: отправленное событие заказа
// нельзя пометить упавшим, и наоборот.
const (
	insertOutboxQuery = `
		INSERT INTO outbox_messages (
			id, aggregate_type, aggregate_id, event_type, payload,
			status, attempt_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 'pending', 0, $6, $6)`

	pendingOutboxQuery = `
		SELECT id, aggregate_type, aggregate_id, event_type, payload
		FROM outbox_messages
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1`

	pendingByEventQuery = `
		SELECT event_type, COUNT(*), MIN(created_at)
		FROM outbox_messages
		WHERE status = 'pending'
		GROUP BY event_type`

	transitionOutboxQuery = `
		UPDATE outbox_messages
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    updated_at = $3
		WHERE id = $1 AND status = 'pending'`
)

type outboxStatus string

const (
	outboxSent   outboxStatus = "sent"
	outboxFailed outboxStatus = "failed"

	defaultPullLimit = 100
)

// orderOutbox хранит события заказов в outbox_messages до публикации в Kafka.
type orderOutbox struct {
	db  *sql.DB
	now func() time.Time
}

// NewOutboxRepository создаёт PostgreSQL-реализацию OutboxRepository.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &orderOutbox{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *orderOutbox) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	err := r.withTimeout(func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, insertOutboxQuery,
			msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, r.now())
		return err
	})
	switch {
	case isUniqueViolation(err):
		return domain.OutboxMessage{}, fmt.Errorf("%s event %s for order %s already enqueued: %w",
			msg.EventType, msg.ID, msg.AggregateID, err)
	case err != nil:
		return domain.OutboxMessage{}, fmt.Errorf("enqueue %s event for order %s: %w", msg.EventType, msg.AggregateID, err)
	}
	return msg, nil
}

// PullPending возвращает события в порядке постановки, чтобы события
// одного заказа уходили в брокер в том порядке, в каком были записаны.
func (r *orderOutbox) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultPullLimit
	}

	var batch []domain.OutboxMessage
	err := r.withTimeout(func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, pendingOutboxQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		batch, err = scanOutboxMessages(rows, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pull pending order events: %w", err)
	}
	return batch, nil
}

func scanOutboxMessages(rows *sql.Rows, capacity int) ([]domain.OutboxMessage, error) {
	batch := make([]domain.OutboxMessage, 0, capacity)
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		batch = append(batch, msg)
	}
	return batch, rows.Err()
}

// Stats считает backlog по типам событий заказа.
func (r *orderOutbox) Stats() (domain.OutboxStats, error) {
	stats := domain.OutboxStats{PendingByEvent: make(map[string]int)}

	err := r.withTimeout(func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, pendingByEventQuery)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				eventType string
				count     int
				oldest    time.Time
			)
			if err := rows.Scan(&eventType, &count, &oldest); err != nil {
				return err
			}
			stats.PendingByEvent[eventType] = count
			stats.PendingCount += count
			if stats.OldestPendingAt.IsZero() || oldest.Before(stats.OldestPendingAt) {
				stats.OldestPendingAt = oldest.UTC()
			}
		}
		return rows.Err()
	})
	if err != nil {
		return domain.OutboxStats{}, fmt.Errorf("order events backlog: %w", err)
	}
	return stats, nil
}

func (r *orderOutbox) MarkSent(id string) error {
	return r.transition(id, outboxSent)
}

func (r *orderOutbox) MarkFailed(id string) error {
	return r.transition(id, outboxFailed)
}

func (r *orderOutbox) transition(id string, status outboxStatus) error {
	var res sql.Result
	err := r.withTimeout(func(ctx context.Context) (err error) {
		res, err = r.db.ExecContext(ctx, transitionOutboxQuery, id, string(status), r.now())
		return err
	})
	if err != nil {
		return fmt.Errorf("mark outbox message %s as %s: %w", id, status, err)
	}
	if err := expectOneRow(res, domain.ErrOutboxPublish); err != nil {
		return fmt.Errorf("outbox message %s is not pending: %w", id, err)
	}
	return nil
}

// withTimeout выполняет fn с таймаутом одной операции хранилища:
// интерфейс outbox не принимает context.
func (r *orderOutbox) withTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return fn(ctx)
}

var _ domain.OutboxRepository = (*orderOutbox)(nil)
