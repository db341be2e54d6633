package kafka

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const (
	defaultClientID = "bakery-service"

	sendRetries      = 5
	sendRetryBackoff = 100 * time.Millisecond
)

var errNoBrokers = errors.New("kafka brokers are not configured")

// Producer синхронно отправляет сообщения в Kafka и ждёт подтверждения
// от всех in-sync реплик.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
}

// NewProducer подключается к brokers; пустой clientID заменяется на bakery-service.
func NewProducer(brokers []string, clientID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}

	sp, err := sarama.NewSyncProducer(brokers, newProducerConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer to %v: %w", brokers, err)
	}
	return newProducer(sp), nil
}

func newProducer(sp sarama.SyncProducer) *Producer {
	return &Producer{sync: sp, logger: log.WithField("component", "kafka-producer")}
}

// newProducerConfig: идемпотентная запись требует acks=all и одного запроса
// в полёте, а hash partitioner держит события одного заказа в одной партиции.
func newProducerConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = cmp.Or(clientID, defaultClientID)

	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Retry.Max = sendRetries
	config.Producer.Retry.Backoff = sendRetryBackoff
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Return.Successes = true
	return config
}

// Send отправляет готовое сообщение; без Timestamp подставляется текущее время.
func (p *Producer) Send(msg *sarama.ProducerMessage) error {
	if p == nil || p.sync == nil {
		return errors.New("kafka producer is not initialized")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	fields := log.Fields{"topic": msg.Topic, "key": encoderString(msg.Key)}
	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("kafka rejected message")
		return fmt.Errorf("send to %s: %w", msg.Topic, err)
	}

	fields["partition"], fields["offset"] = partition, offset
	p.logger.WithFields(fields).Debug("kafka acknowledged message")
	return nil
}

// Close закрывает соединения с брокерами; nil-producer закрывать можно.
func (p *Producer) Close() error {
	if p == nil || p.sync == nil {
		return nil
	}
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

func encoderString(enc sarama.Encoder) string {
	if enc == nil {
		return ""
	}
	raw, err := enc.Encode()
	if err != nil {
		return ""
	}
	return string(raw)
}
