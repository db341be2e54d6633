package domain

import "time"

// OutboxPublisher публикует события из outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	// MarkSent и MarkFailed переводят только pending-сообщение;
	// повторный перевод возвращает ErrOutboxPublish.
	MarkSent(id string) error
	MarkFailed(id string) error
}

// Типы событий заказа, которые попадают в outbox.
const (
	AggregateCustomerOrder = "customer_order"

	EventCustomerOrderCreated = "CustomerOrderCreated"
	EventCustomerOrderUpdated = "CustomerOrderUpdated"
	EventCustomerOrderDeleted = "CustomerOrderDeleted"
)

// OrderEventTypes перечисляет все события заказа в порядке жизненного цикла.
var OrderEventTypes = []string{
	EventCustomerOrderCreated,
	EventCustomerOrderUpdated,
	EventCustomerOrderDeleted,
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
	// PendingByEvent — число pending-сообщений по типу события.
	PendingByEvent map[string]int
}
