package bakery

import (
	"encoding/json"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

// orderEventPayload — тело события заказа в outbox.
type orderEventPayload struct {
	OrderID      int64     `json:"order_id"`
	Name         string    `json:"name,omitempty"`
	DeliveryDate string    `json:"delivery_date,omitempty"`
	Status       string    `json:"status,omitempty"`
	CustomerID   int64     `json:"customer_id,omitempty"`
	CakeIDs      []int64   `json:"cake_ids,omitempty"`
	Version      int64     `json:"version,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// orderEvents пишет события заказов в outbox. Ошибки только логируются:
// к этому моменту заказ уже записан.
type orderEvents struct {
	outbox  domain.OutboxRepository
	now     func() time.Time
	logger  *log.Entry
	metrics *metrics.BakeryMetrics
}

func (e *orderEvents) written(order domain.CustomerOrder, eventType string) {
	payload := orderEventPayload{
		OrderID:    order.ID,
		Name:       order.Name,
		Status:     order.Status,
		CustomerID: order.CustomerID,
		CakeIDs:    order.CakeIDs,
		Version:    order.Version,
		OccurredAt: e.now(),
	}
	if !order.DeliveryDate.IsZero() {
		payload.DeliveryDate = order.DeliveryDate.String()
	}
	e.emit(order.ID, eventType, payload)
}

func (e *orderEvents) deleted(id int64) {
	e.emit(id, domain.EventCustomerOrderDeleted, orderEventPayload{OrderID: id, OccurredAt: e.now()})
}

func (e *orderEvents) emit(orderID int64, eventType string, payload orderEventPayload) {
	if e == nil || e.outbox == nil {
		return
	}

	fields := log.Fields{"order_id": orderID, "event": eventType}
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.WithError(err).WithFields(fields).Error("marshal order event failed")
		e.metrics.RecordOutboxEnqueue(eventType, err)
		return
	}

	_, err = e.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: domain.AggregateCustomerOrder,
		AggregateID:   strconv.FormatInt(orderID, 10),
		EventType:     eventType,
		Payload:       data,
	})
	e.metrics.RecordOutboxEnqueue(eventType, err)
	if err != nil {
		e.logger.WithError(err).WithFields(fields).Error("enqueue order event failed")
	}
}
