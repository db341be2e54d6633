package memory

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := NewOutboxRepository()

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateCustomerOrder,
		AggregateID:   "1",
		EventType:     domain.EventCustomerOrderCreated,
		Payload:       []byte(`{"status":"new"}`),
	}

	saved, err := repo.Enqueue(msg)
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}
	if pending[0].ID != saved.ID {
		t.Fatalf("expected same message id, got %s", pending[0].ID)
	}
}

func TestOutboxRepository_PullPendingKeepsEnqueueOrder(t *testing.T) {
	repo := NewOutboxRepository()

	for _, id := range []string{"c", "a", "b"} {
		if _, err := repo.Enqueue(domain.OutboxMessage{ID: id}); err != nil {
			t.Fatalf("enqueue %s failed: %v", id, err)
		}
	}

	pending, err := repo.PullPending(2)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "c" || pending[1].ID != "a" {
		t.Fatalf("unexpected pending order: %+v", pending)
	}
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	repo := NewOutboxRepository()

	saved, err := repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateCustomerOrder})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if err := repo.MarkSent(saved.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	if got := len(repo.AllPending()); got != 0 {
		t.Fatalf("expected no pending messages after MarkSent, got %d", got)
	}

	if err := repo.MarkFailed(saved.ID); err == nil {
		t.Fatal("sent message must not be marked failed")
	}

	if err := repo.MarkFailed("missing"); err == nil {
		t.Fatal("expected error for missing record")
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := NewOutboxRepository()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats for empty outbox: %+v", stats)
	}

	first, _ := repo.Enqueue(domain.OutboxMessage{ID: "first", EventType: domain.EventCustomerOrderCreated})
	_, _ = repo.Enqueue(domain.OutboxMessage{ID: "second", EventType: domain.EventCustomerOrderUpdated})

	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.PendingByEvent[domain.EventCustomerOrderCreated] != 1 || stats.PendingByEvent[domain.EventCustomerOrderUpdated] != 1 {
		t.Fatalf("unexpected per-event backlog: %v", stats.PendingByEvent)
	}
	if !stats.OldestPendingAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected oldest pending time: %s", stats.OldestPendingAt)
	}

	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	stats, _ = repo.Stats()
	if stats.PendingCount != 1 || !stats.OldestPendingAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected stats after MarkSent: %+v", stats)
	}
	if _, ok := stats.PendingByEvent[domain.EventCustomerOrderCreated]; ok {
		t.Fatalf("sent event type must leave the backlog: %v", stats.PendingByEvent)
	}
}
