package health

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// OrderEventsChecker следит за backlog событий заказов в outbox.
// Застрявшие события не мешают принимать заказы, поэтому статус не хуже degraded.
type OrderEventsChecker struct {
	outbox domain.OutboxRepository
	maxLag time.Duration
	now    func() time.Time
}

// NewOrderEventsChecker создаёт проверку: degraded, если самое старое
// неопубликованное событие заказа ждёт дольше maxLag.
func NewOrderEventsChecker(outbox domain.OutboxRepository, maxLag time.Duration) *OrderEventsChecker {
	return &OrderEventsChecker{
		outbox: outbox,
		maxLag: maxLag,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (c *OrderEventsChecker) Check(_ context.Context) Check {
	started := time.Now()
	check := Check{Name: "order_events", Status: StatusHealthy}

	stats, err := c.outbox.Stats()
	switch {
	case err != nil:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("backlog unavailable: %v", err)
	case stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero():
		lag := c.now().Sub(stats.OldestPendingAt)
		if lag > c.maxLag {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d order events pending, oldest for %s", stats.PendingCount, lag.Truncate(time.Second))
		}
	}
	check.DurationMs = time.Since(started).Milliseconds()
	return check
}
