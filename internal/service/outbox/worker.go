package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	maxRetryDelay         = 5 * time.Second
)

// Итоги доставки события заказа (label result).
const (
	resultSent      = "sent"
	resultRetry     = "retry"
	resultFailed    = "failed"
	resultRejected  = "rejected"
	resultDLQFailed = "dlq_failed"
)

var (
	orderEventDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bakery_outbox_publish_attempts_total",
		Help: "Order event publish attempts grouped by event type and result.",
	}, []string{"event_type", "result"})
	orderEventsPending = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bakery_outbox_pending_records",
		Help: "Pending order events in the outbox grouped by event type.",
	}, []string{"event_type"})
	oldestOrderEventAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bakery_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending order event.",
	})
)

// errRejectedEvent помечает событие, которое нет смысла публиковать повторно:
// чужой агрегат, неизвестный тип или тело, не совпадающее с заказом.
var errRejectedEvent = errors.New("order event rejected")

// Option настраивает Worker.
type Option func(*Worker)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithDLQPublisher задаёт publisher для событий, которые не удалось доставить.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) { w.pollInterval = interval }
}

// WithBatchSize задаёт число событий за один опрос.
func WithBatchSize(batchSize int) Option {
	return func(w *Worker) { w.batchSize = batchSize }
}

// WithMaxAttempts задаёт число попыток публикации до DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) { w.retry.attempts = maxAttempts }
}

// WithRetryBaseDelay задаёт паузу перед второй попыткой; дальше она удваивается.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) { w.retry.base = delay }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// retryPolicy — экспоненциальная пауза между попытками, ограниченная maxRetryDelay.
type retryPolicy struct {
	attempts int
	base     time.Duration
}

// delay возвращает паузу после неудачной попытки attempt (нумерация с 1).
func (p retryPolicy) delay(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	delay := p.base
	for i := 1; i < attempt; i++ {
		if delay >= maxRetryDelay/2 {
			return maxRetryDelay
		}
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

// Worker переносит события заказов из outbox в брокер.
// Ключ сообщения в брокере — id заказа, поэтому события одного заказа
// попадают в одну партицию в порядке постановки.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	logger    *log.Entry

	pollInterval time.Duration
	batchSize    int
	retry        retryPolicy
	now          func() time.Time
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:         repo,
		publisher:    publisher,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
		retry:        retryPolicy{attempts: defaultMaxAttempts, base: defaultRetryBaseDelay},
	}
	for _, option := range options {
		option(w)
	}

	if w.logger == nil {
		w.logger = log.WithField("component", "outbox-worker")
	}
	if w.pollInterval <= 0 {
		w.pollInterval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.retry.attempts <= 0 {
		w.retry.attempts = defaultMaxAttempts
	}
	if w.now == nil {
		w.now = func() time.Time { return time.Now().UTC() }
	}
	return w
}

// Run опрашивает outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce доставляет одну пачку pending-событий.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.observeBacklog()
	defer w.observeBacklog()

	batch, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending order events")
		return
	}
	for _, msg := range batch {
		if ctx.Err() != nil {
			return
		}
		w.deliver(ctx, msg)
	}
}

// deliver публикует одно событие и фиксирует итог в outbox.
// Если ctx отменён посреди retry, событие остаётся pending до следующего запуска.
func (w *Worker) deliver(ctx context.Context, msg domain.OutboxMessage) {
	event, err := decodeOrderEvent(msg)
	fields := log.Fields{"outbox_id": msg.ID, "event_type": msg.EventType, "order_id": event.OrderID}
	if err == nil {
		err = w.publishWithRetry(ctx, msg)
	}

	switch {
	case err == nil:
		if markErr := w.repo.MarkSent(msg.ID); markErr != nil {
			w.logger.WithError(markErr).WithFields(fields).Warn("failed to mark order event as sent")
		}
		return
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		w.logger.WithFields(fields).Debug("order event left pending on shutdown")
		return
	case errors.Is(err, errRejectedEvent):
		orderEventDeliveries.WithLabelValues(msg.EventType, resultRejected).Inc()
		w.logger.WithError(err).WithFields(fields).Error("order event rejected")
	default:
		orderEventDeliveries.WithLabelValues(msg.EventType, resultFailed).Inc()
		w.logger.WithError(err).WithFields(fields).Error("order event publish failed after retries")
	}

	if dlqErr := w.deadLetter(msg, event, err); dlqErr != nil {
		orderEventDeliveries.WithLabelValues(msg.EventType, resultDLQFailed).Inc()
		w.logger.WithError(dlqErr).WithFields(fields).Warn("failed to publish order event to DLQ")
	}
	if markErr := w.repo.MarkFailed(msg.ID); markErr != nil {
		w.logger.WithError(markErr).WithFields(fields).Warn("failed to mark order event as failed")
	}
}

func (w *Worker) publishWithRetry(ctx context.Context, msg domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.retry.attempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, w.retry.delay(attempt-1)); err != nil {
				return err
			}
		}

		lastErr = w.publisher.Publish(msg)
		if lastErr == nil {
			orderEventDeliveries.WithLabelValues(msg.EventType, resultSent).Inc()
			return nil
		}
		orderEventDeliveries.WithLabelValues(msg.EventType, resultRetry).Inc()
	}
	return fmt.Errorf("publish %s after %d attempts: %w", msg.EventType, w.retry.attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *Worker) observeBacklog() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect order events backlog")
		return
	}

	for _, eventType := range domain.OrderEventTypes {
		orderEventsPending.WithLabelValues(eventType).Set(float64(stats.PendingByEvent[eventType]))
	}

	age := 0.0
	if stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero() {
		age = max(w.now().Sub(stats.OldestPendingAt).Seconds(), 0)
	}
	oldestOrderEventAge.Set(age)
}

// orderEvent — поля тела события заказа, которые нужны воркеру.
type orderEvent struct {
	OrderID int64 `json:"order_id"`
}

// decodeOrderEvent проверяет, что сообщение — событие заказа известного
// типа и что его тело относится к заказу из AggregateID.
func decodeOrderEvent(msg domain.OutboxMessage) (orderEvent, error) {
	var event orderEvent
	if msg.AggregateType != domain.AggregateCustomerOrder {
		return event, fmt.Errorf("%w: aggregate %q", errRejectedEvent, msg.AggregateType)
	}
	if !isOrderEventType(msg.EventType) {
		return event, fmt.Errorf("%w: event type %q", errRejectedEvent, msg.EventType)
	}
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("%w: payload: %v", errRejectedEvent, err)
	}
	if strconv.FormatInt(event.OrderID, 10) != msg.AggregateID {
		return event, fmt.Errorf("%w: payload order %d does not match aggregate %q",
			errRejectedEvent, event.OrderID, msg.AggregateID)
	}
	return event, nil
}

func isOrderEventType(eventType string) bool {
	for _, known := range domain.OrderEventTypes {
		if eventType == known {
			return true
		}
	}
	return false
}

// deadLetterRecord — тело сообщения в DLQ.
type deadLetterRecord struct {
	OutboxID  string          `json:"outbox_id"`
	OrderID   int64           `json:"order_id,omitempty"`
	EventType string          `json:"event_type"`
	Event     json.RawMessage `json:"event,omitempty"`
	// RawEvent заполняется, если исходное тело не является JSON.
	RawEvent  string    `json:"raw_event,omitempty"`
	Reason    string    `json:"reason"`
	Retryable bool      `json:"retryable"`
	FailedAt  time.Time `json:"failed_at"`
}

func (w *Worker) deadLetter(msg domain.OutboxMessage, event orderEvent, cause error) error {
	if w.dlq == nil {
		return nil
	}

	record := deadLetterRecord{
		OutboxID:  msg.ID,
		OrderID:   event.OrderID,
		EventType: msg.EventType,
		Reason:    cause.Error(),
		Retryable: !errors.Is(cause, errRejectedEvent),
		FailedAt:  w.now(),
	}
	if json.Valid(msg.Payload) {
		record.Event = json.RawMessage(msg.Payload)
	} else {
		record.RawEvent = string(msg.Payload)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	letter := msg
	letter.Payload = payload
	if err := w.dlq.Publish(letter); err != nil {
		return fmt.Errorf("publish dead letter: %w", err)
	}
	return nil
}
