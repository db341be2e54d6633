package kafka

import (
	"encoding/json"
	"time"
)

// Topics для Kafka
const (
	TopicCustomerOrderEvents = "bakery.customer_order.events"
	TopicDeadLetterQueue     = "bakery.dlq" // Dead Letter Queue для событий, не опубликованных после retry
)

// Kafka headers сообщений с событиями заказов
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
)

// OutboxEnvelope — формат сообщения, которое получает Kafka из outbox.
type OutboxEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}
