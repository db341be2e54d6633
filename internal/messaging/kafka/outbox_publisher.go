package kafka

import (
	"cmp"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
// Ключ сообщения — идентификатор заказа, поэтому события одного заказа
// попадают в одну партицию.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicCustomerOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Topic возвращает topic, в который пишет паблишер.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

// Publish упаковывает событие в OutboxEnvelope и отправляет его с ключом
// по заказу; без AggregateID ключом становится id outbox-записи.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	value, err := json.Marshal(OutboxEnvelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   p.now(),
	})
	if err != nil {
		return fmt.Errorf("encode outbox envelope %s: %w", event.ID, err)
	}

	return p.producer.Send(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(cmp.Or(event.AggregateID, event.ID)),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(event.EventType)},
			{Key: []byte(HeaderAggregateType), Value: []byte(event.AggregateType)},
			{Key: []byte(HeaderOutboxID), Value: []byte(event.ID)},
		},
		Timestamp: p.now(),
	})
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
